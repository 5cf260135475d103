package runtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/store"
)

// OpenRedis connects to the configured Redis instance. It returns nil when
// Redis is not configured.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// OpenStore connects the run store. It returns nil when Postgres is not configured.
func OpenStore(ctx context.Context, cfg config.PostgresConfig) (*store.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return store.NewWithDSN(ctx, cfg.DSN())
}
