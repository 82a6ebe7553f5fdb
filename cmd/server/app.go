package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/catatkas/backend/internal/audit"
	"github.com/catatkas/backend/internal/config"
	"github.com/catatkas/backend/internal/database"
	"github.com/catatkas/backend/internal/events"
	"github.com/catatkas/backend/internal/services"
	"github.com/catatkas/backend/internal/store"
)

// app holds the long-lived dependencies shared by the subcommands.
type app struct {
	store      store.LedgerStore
	publisher  events.Publisher
	dispatcher *services.Dispatcher
}

func newApp(ctx context.Context, cfg *config.Config, migrate bool) (*app, error) {
	ledgerStore, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			ledgerStore.Close()
			return nil, fmt.Errorf("failed to connect event publisher: %w", err)
		}
		publisher = amqpPublisher
		slog.Info("Publishing ledger events", "exchange", cfg.AMQP.Exchange)
	}

	ledger := services.NewLedgerService(ledgerStore, audit.NewAuditLogger(slog.Default(), publisher), services.LedgerOptions{
		HistoryLimit: cfg.Ledger.HistoryLimit,
		IDAttempts:   cfg.Ledger.IDAttempts,
		Location:     cfg.Ledger.Location(),
	})

	return &app{
		store:      ledgerStore,
		publisher:  publisher,
		dispatcher: services.NewDispatcher(ledger),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool) (store.LedgerStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		rdb, err := database.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(rdb), nil

	case "postgres":
		db, err := database.InitDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.RunMigrations(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return store.NewPostgresStore(db), nil

	case "memory":
		slog.Warn("Using in-memory store; the ledger is lost on restart")
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		slog.Error("Failed to close event publisher", "error", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close store", "error", err)
	}
}
