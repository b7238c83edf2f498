package updates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jobmanager_helper:site_transient:"

// RedisBackend keeps site transients in redis, letting several helper
// processes share one update-check result.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend wraps an existing redis client.
func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) LoadTransient(ctx context.Context, name string) ([]byte, bool, error) {
	value, err := b.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load transient %s: %w", name, err)
	}
	return value, true, nil
}

func (b *RedisBackend) SaveTransient(ctx context.Context, name string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, redisKeyPrefix+name, value, ttl).Err(); err != nil {
		return fmt.Errorf("save transient %s: %w", name, err)
	}
	return nil
}

func (b *RedisBackend) DeleteTransient(ctx context.Context, name string) error {
	if err := b.client.Del(ctx, redisKeyPrefix+name).Err(); err != nil {
		return fmt.Errorf("delete transient %s: %w", name, err)
	}
	return nil
}

// Close releases the redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
