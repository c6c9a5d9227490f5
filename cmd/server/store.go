package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soaringjerry/growpoint/internal/config"
	"github.com/soaringjerry/growpoint/internal/db"
	"github.com/soaringjerry/growpoint/internal/logger"
)

type closeFunc func(context.Context) error

// openStore connects the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (db.Store, closeFunc, error) {
	log = &logger.Logger{Entry: log.WithField("backend", cfg.DBBackend)}
	switch cfg.DBBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), func(context.Context) error { return nil }, nil

	case config.BackendMongo:
		s, err := db.ConnectMongo(ctx, cfg.DBDSN, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("connected to mongo")
		return s, s.Close, nil

	case config.BackendSQLite, config.BackendPostgres:
		dialect := db.DialectPostgres
		dsn := cfg.DBDSN
		if cfg.DBBackend == config.BackendSQLite {
			dialect = db.DialectSQLite
			var err error
			if dsn, err = sqliteDSN(dsn); err != nil {
				return nil, nil, err
			}
		}
		sqlDB, err := db.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(sqlDB, dialect, cfg.MigrationsDir); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		s, err := db.NewSQLStore(sqlDB, dialect)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		log.Info("database ready")
		return s, func(context.Context) error { return s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported db-backend %q", cfg.DBBackend)
}

// sqliteDSN turns a bare file path into a DSN with a busy timeout and makes
// sure the parent directory exists. Full "file:" DSNs pass through.
func sqliteDSN(path string) (string, error) {
	if strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(path)), nil
}
