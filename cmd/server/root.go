package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/growpoint/internal/config"
	"github.com/soaringjerry/growpoint/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

type globalOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "growpoint",
		Short:         "GrowPoint survey metrics server",
		Long:          `GrowPoint collects team pulse surveys and serves role-based engagement, cohesion and friction dashboards.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default $GROWPOINT_CONFIG or ./growpoint.yaml)")

	serve := newServeCmd(opts)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newReportCmd(opts),
		newHashCodeCmd(),
		newVersionCmd(),
	)
	return root
}

// load resolves configuration and the process logger for a command.
func (o *globalOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Commit == "" {
		cfg.Commit = commit
	}
	return cfg, logger.New(cfg.Env, cfg.LogLevel), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("growpoint %s\n", version)
			cmd.Printf("  Commit:  %s\n", commit)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}
