package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/config"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/inmemory"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/jsonfile"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/postgres"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/sqlite"
)

type stores struct {
	Payments payment.Repository
	Outbox   outbox.Repository
	closers  []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores migrates SQL stores on startup so serve works on an empty
// database. SQL stores write outbox rows in the payment transaction; the
// memory and jsonfile stores record into an in-process outbox.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		box := outbox.NewMemoryRepository()
		return &stores{
			Payments: inmemory.NewRecordingPaymentRepository(&outbox.Recorder{Repo: box}),
			Outbox:   box,
		}, nil

	case config.DriverJSONFile:
		box := outbox.NewMemoryRepository()
		return &stores{
			Payments: jsonfile.NewRecordingPaymentRepository(cfg.Storage.JSONPath, &outbox.Recorder{Repo: box}),
			Outbox:   box,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			Payments: sqlite.NewPaymentRepository(db),
			Outbox:   outbox.NewSQLiteRepository(db),
			closers:  []func(){func() { db.Close() }},
		}, nil

	case config.DriverPostgres:
		if err := postgres.RunMigrations(ctx, cfg.Storage.PostgresDSN); err != nil {
			return nil, err
		}
		pool, err := postgres.OpenPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			Payments: postgres.NewPaymentRepository(pool),
			Outbox:   postgres.NewOutboxRepository(pool),
			closers:  []func(){pool.Close},
		}, nil
	}

	return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
