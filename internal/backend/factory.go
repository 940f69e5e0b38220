package backend

import (
	"context"
	"fmt"

	"expense_tribute/internal/config"
	"expense_tribute/internal/log"
	"expense_tribute/internal/repository"
)

// CleanupFunc releases the resources held by a backend
type CleanupFunc func() error

// PingFunc reports whether the backend can still serve requests
type PingFunc func(ctx context.Context) error

// Backend bundles the repositories of one storage backend
type Backend struct {
	Type     string
	Users    repository.UserRepository
	Expenses repository.ExpenseRepository
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs the cleanup function, if any
func (b *Backend) Close() error {
	if b.Cleanup == nil {
		return nil
	}
	return b.Cleanup()
}

// New creates the backend selected by cfg.StorageBackend
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	logger = logger.WithComponent(log.ComponentBackend)

	switch cfg.StorageBackend {
	case config.BackendFile:
		return newFileBackend(cfg, logger)
	case config.BackendPostgres:
		return newPostgresBackend(ctx, cfg, logger)
	case config.BackendSQLite:
		return newSQLiteBackend(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

func newFileBackend(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	store, err := repository.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	logger.Info("Initialized file backend", "data_directory", cfg.DataDir)

	return &Backend{
		Type:     config.BackendFile,
		Users:    store.Users(),
		Expenses: store.Expenses(),
		Ping:     store.Ping,
	}, nil
}

func newPostgresBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	pool, err := config.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := config.AutoMigrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	logger.Info("Initialized postgres backend")

	return &Backend{
		Type:     config.BackendPostgres,
		Users:    repository.NewUserRepository(pool),
		Expenses: repository.NewExpenseRepository(pool),
		Ping:     pool.Ping,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func newSQLiteBackend(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	store, err := repository.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	logger.Info("Initialized SQLite backend", "db_path", cfg.SQLitePath)

	return &Backend{
		Type:     config.BackendSQLite,
		Users:    store.Users(),
		Expenses: store.Expenses(),
		Ping:     store.Ping,
		Cleanup:  store.Close,
	}, nil
}
