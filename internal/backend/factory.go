package backend

import (
	"context"
	"fmt"
	"log/slog"

	"autosales/internal/sales/memory"
	"autosales/internal/storage"
	"autosales/internal/synth"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	records := synth.Generate(synth.NewRand(config.Seed))
	if err := repo.Load(ctx, records); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to load sales table: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"rows", len(records),
		"seed", config.Seed)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	table := memory.NewGenerated(config.Seed)

	f.logger.Info("Initialized memory backend", "seed", config.Seed)

	return &BackendResult{
		Backend: table,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
