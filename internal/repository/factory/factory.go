// Package factory creates repository sets based on configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/repository"
	"github.com/kanva-ao/kanva-server/internal/repository/postgres"
	"github.com/kanva-ao/kanva-server/internal/repository/sqlite"
)

// Result contains the created repositories and database handle.
type Result struct {
	Repos    *repository.Repositories
	Database repository.DatabaseHealth
}

// New creates the repositories for the configured database driver and runs
// pending migrations.
func New(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Path,
			JournalMode:     cfg.JournalMode,
			BusyTimeout:     cfg.BusyTimeout,
			SynchronousMode: cfg.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Result{
			Repos: &repository.Repositories{
				AccessKey: sqlite.NewAccessKeyRepository(db),
				Card:      sqlite.NewCardRepository(db),
				Design:    sqlite.NewDesignRepository(db),
			},
			Database: db,
		}, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Result{
			Repos: &repository.Repositories{
				AccessKey: postgres.NewAccessKeyRepository(db),
				Card:      postgres.NewCardRepository(db),
				Design:    postgres.NewDesignRepository(db),
			},
			Database: db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
