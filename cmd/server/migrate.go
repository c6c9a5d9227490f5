package main

import (
	"github.com/spf13/cobra"

	"github.com/soaringjerry/growpoint/internal/config"
	"github.com/soaringjerry/growpoint/internal/db"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			switch cfg.DBBackend {
			case config.BackendSQLite, config.BackendPostgres:
				dialect := db.Dialect(cfg.DBBackend)
				names, err := db.MigrationNames(dialect, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				for _, n := range names {
					cmd.Printf("apply %s/%s\n", dialect, n)
				}
			}
			// openStore applies migrations (or mongo indexes) on connect.
			_, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore(cmd.Context()) }()
			cmd.Printf("%s schema is up to date\n", cfg.DBBackend)
			return nil
		},
	}
}
