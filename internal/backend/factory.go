package backend

import (
	"fmt"

	"paga/internal/config"
	"paga/internal/log"
	"paga/internal/storage"
)

// Factory opens repositories according to the configured backend.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a backend factory.
func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger}
}

// Open initializes the repository named by cfg.DataBackend. For the
// SQLite backend pending migrations run before the repository opens.
func (f *Factory) Open(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type %q: must be one of %v", cfg.DataBackend, Types())
	}

	switch t {
	case SQLite:
		return f.openSQLite(cfg)
	default:
		return f.openMemory()
	}
}

func (f *Factory) openSQLite(cfg *config.Config) (*Result, error) {
	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	f.logger.Info("initialized sqlite backend", log.FieldComponent, log.ComponentStorage, "db_path", cfg.SQLiteDBPath)

	return &Result{Repo: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) openMemory() (*Result, error) {
	repo := storage.NewMemoryRepository()

	f.logger.Info("initialized memory backend", log.FieldComponent, log.ComponentStorage)

	return &Result{Repo: repo, Cleanup: repo.Close}, nil
}
