package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix       = "place:"
	redisTombstonePrefix = "place-invalidated:"

	// DefaultTombstoneTTL bounds how long a fetch started on another
	// instance before a write can still be running.
	DefaultTombstoneTTL = 5 * time.Second
)

// setUnlessInvalidated stores KEYS[1] unless KEYS[2], the key's tombstone, exists.
var setUnlessInvalidated = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// RedisBackend shares cache entries between API instances. Expiry is
// delegated to Redis key TTLs.
//
// Delete leaves a short-lived tombstone that makes Set a no-op, so a value
// fetched on one instance before another instance's write is not stored
// after it.
type RedisBackend struct {
	client       redis.Cmdable
	ttl          time.Duration
	tombstoneTTL time.Duration
}

// NewRedisBackend creates a Redis-backed Backend. A non-positive ttl uses DefaultTTL.
func NewRedisBackend(client redis.Cmdable, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBackend{client: client, ttl: ttl, tombstoneTTL: DefaultTombstoneTTL}
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: cannot reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (*models.Place, bool, error) {
	raw, err := b.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}

	var place models.Place
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, false, fmt.Errorf("cache: corrupt entry %s: %w", key, err)
	}
	return &place, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, place *models.Place) error {
	raw, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal %s: %w", key, err)
	}
	keys := []string{redisKeyPrefix + key, redisTombstonePrefix + key}
	if err := setUnlessInvalidated.Run(ctx, b.client, keys, raw, b.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisTombstonePrefix+key, 1, b.tombstoneTTL)
		pipe.Del(ctx, redisKeyPrefix+key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: redis del %s: %w", key, err)
	}
	return nil
}
