package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxviazov/config-grid-service/internal/config"
	"github.com/maxviazov/config-grid-service/internal/repository"
	"github.com/maxviazov/config-grid-service/internal/repository/memory"
	"github.com/maxviazov/config-grid-service/internal/repository/postgres"
	"github.com/maxviazov/config-grid-service/internal/resource"
	"github.com/rs/zerolog"
)

// backend is the wired storage side of the service.
type backend struct {
	registry *resource.Registry
	pinger   repository.Pinger
	close    func()
}

// buildBackend connects to Postgres, or seeds in-memory stores when it is disabled.
func buildBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if !cfg.Postgres.Enabled {
		return memoryBackend(cfg)
	}

	repo, err := repository.New(ctx, cfg, &log)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, repository.DSN(cfg.Postgres), "up"); err != nil {
			repo.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		log.Info().Msg("migrations applied")
	}

	pool := repo.Pool()
	snapshots := postgres.NewTxManager(pool)
	descs := make([]resource.Descriptor, 0, len(cfg.Resources))
	for _, rc := range cfg.Resources {
		accessor := postgres.NewRecordRepository(pool, resource.SchemaFromConfig(rc))
		descs = append(descs, resource.FromConfig(rc, cfg.Grid, accessor, snapshots))
	}
	reg, err := resource.NewRegistry(descs...)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return &backend{registry: reg, pinger: postgres.NewPinger(pool), close: repo.Close}, nil
}

func memoryBackend(cfg *config.Config) (*backend, error) {
	descs := make([]resource.Descriptor, 0, len(cfg.Resources))
	var stores pingers
	for _, rc := range cfg.Resources {
		store := memory.NewStore(resource.SchemaFromConfig(rc), resource.SeedRows(rc))
		stores = append(stores, store)
		descs = append(descs, resource.FromConfig(rc, cfg.Grid, store, store))
	}
	reg, err := resource.NewRegistry(descs...)
	if err != nil {
		return nil, err
	}
	return &backend{registry: reg, pinger: stores, close: func() {}}, nil
}

// pingers is ready only when every store is.
type pingers []repository.Pinger

func (ps pingers) Ping(ctx context.Context) error {
	var errs []error
	for _, p := range ps {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
