package service

import (
	"fmt"

	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/storage"
)

// OpenStore constructs the configured storage backend.
func OpenStore(cfg config.Config) (storage.Store, error) {
	options := storage.Options{
		RecentLimit: cfg.History.RecentLimitOrDefault(),
		MaxRetries:  cfg.Storage.MaxRetries,
	}

	switch cfg.Storage.Backend {
	case config.StorageBackendKeyDB:
		return storage.NewKeyDBStore(cfg.Storage.KeyDB, options)
	case config.StorageBackendBolt:
		return storage.NewBoltStore(cfg.Storage.BoltPath, options)
	case config.StorageBackendSQLite:
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath, options)
	case config.StorageBackendMemory, "":
		return storage.NewMemoryStore(options), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
