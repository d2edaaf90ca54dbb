package backend

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/memory"
	"conti/internal/storage"
	"conti/internal/storage/postgres"
)

// Factory opens backends from application configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open builds the store named by cfg.DataBackend. For the sqlite
// backend it also attaches the AMQP publisher when an URL is
// configured; export runs off the sqlite pending-sync column, so the
// other backends never publish.
func (f *Factory) Open(ctx context.Context, cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		return f.openSQLite(cfg)
	case PostgresBackend:
		return f.openPostgres(ctx, cfg)
	default:
		return f.openMemory()
	}
}

func (f *Factory) openSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync",
				"error", err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		log.Backend(string(SQLiteBackend)),
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	result := &Result{Store: repo, Cleanup: func() error {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				f.logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		return repo.Close()
	}}
	if publisher != nil {
		result.Publisher = publisher
	}
	return result, nil
}

func (f *Factory) openPostgres(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend", log.Backend(string(PostgresBackend)))

	return &Result{Store: repo, Cleanup: func() error {
		repo.Close()
		return nil
	}}, nil
}

func (f *Factory) openMemory() (*Result, error) {
	f.logger.Info("Initialized memory backend", log.Backend(string(MemoryBackend)))
	return &Result{Store: memory.New()}, nil
}
