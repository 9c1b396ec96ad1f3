package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gestaosocial/internal/adapters"
	"gestaosocial/internal/amqp"
	"gestaosocial/internal/remote"
	"gestaosocial/internal/remote/memory"
	"gestaosocial/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend. When an AMQP URL is set
// the backend is wrapped so writes are announced; a broker that cannot be
// reached at startup only disables announcements.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		f.attachPublisher(result, config)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath,
		storage.WithJWTSecret(config.JWTSecret),
		storage.WithSessionTTL(config.SessionTTL),
		storage.WithConfirmation(config.RequireConfirmation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedUserEmail != "" {
		if err := repo.EnsureUser(ctx, config.SeedUserEmail, config.SeedUserPassword); err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed user: %w", err)
		}
	}
	if n, err := repo.PruneSessions(ctx); err != nil {
		f.logger.Warn("Failed to prune expired sessions", "error", err)
	} else if n > 0 {
		f.logger.Info("Pruned expired sessions", "count", n)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Backend: repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var opts []memory.Option
	if config.RequireConfirmation {
		opts = append(opts, memory.WithConfirmation())
	}
	if config.SeedUserEmail != "" {
		opts = append(opts, memory.WithUser(config.SeedUserEmail, config.SeedUserPassword))
	}

	var (
		store *memory.Store
		err   error
	)
	if config.SeedFile != "" {
		store, err = memory.NewFromFile(config.SeedFile, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
	} else {
		store = memory.New(opts...)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return &BackendResult{
		Backend: store,
		Ping:    func(context.Context) error { return nil },
	}, nil
}

func (f *DefaultFactory) attachPublisher(result *BackendResult, config Config) {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)

	result.Backend = wrapPublishing(result.Backend, client, f.logger)
	result.Publishing = true
	inner := result.Cleanup
	result.Cleanup = func() error {
		err := client.Close()
		if inner != nil {
			err = errors.Join(err, inner())
		}
		return err
	}
}

func wrapPublishing(b remote.Backend, publisher adapters.ChangePublisher, logger *slog.Logger) remote.Backend {
	return adapters.NewPublishingBackend(b, publisher, logger)
}
