package store

import (
	"context"
	"fmt"

	"compliance-evidence-service/internal/config"
)

// Open returns the backend named by cfg.Driver. Postgres tables are
// created on first open.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Dir)
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("store: migrate: %w", err)
		}
		return s, nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
