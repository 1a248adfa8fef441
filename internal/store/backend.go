package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/database"
)

// Backend is an opened KV together with its release function.
type Backend struct {
	KV    KV
	Name  string
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the KV selected by cfg.StoreBackend. The database backend
// migrates its table before returning.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("using in-memory store, state is lost on restart")
		return &Backend{KV: NewMemoryKV(), Name: config.StoreMemory}, nil

	case config.StoreDatabase:
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		kv := NewGormKV(db)
		if err := kv.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate state_entries: %w", err)
		}
		return &Backend{KV: kv, Name: config.StoreDatabase, close: sqlDB.Close}, nil

	case config.StoreRedis:
		client, err := DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Backend{KV: NewRedisKV(client), Name: config.StoreRedis, close: client.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
