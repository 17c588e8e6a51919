package cache

import (
	"context"
	"fmt"

	"github.com/crazyskateface/workbrew-backend/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
)

// Open builds the backend selected by cfg.CacheBackend. The returned func
// releases its connections.
func Open(ctx context.Context, cfg config.Config) (Backend, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return NewMemoryBackend(cfg.CacheTTL), func() {}, nil

	case config.CacheRedis:
		client, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache backend")
		return NewRedisBackend(client, cfg.CacheTTL), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("cache: unknown backend %q", cfg.CacheBackend)
	}
}
