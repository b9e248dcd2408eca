package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each namespace as a single JSON string value.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to redisURL and verifies the connection.
func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBackendWithClient(client), nil
}

func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: "whorep:cache:",
	}
}

func (b *RedisBackend) key(ns Namespace) string {
	return b.prefix + string(ns)
}

func (b *RedisBackend) Load(ctx context.Context, ns Namespace) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(ns)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load namespace %s: %w", ns, err)
	}
	return data, nil
}

func (b *RedisBackend) Save(ctx context.Context, ns Namespace, data []byte) error {
	if err := b.client.Set(ctx, b.key(ns), data, 0).Err(); err != nil {
		return fmt.Errorf("save namespace %s: %w", ns, err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
