package credstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed durable tier. Useful when several
// kiosk or agent processes share one storefront session.
func NewRedis(cfg RedisConfig) (Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("credstore: redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("credstore: redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "storefront:cred:"
	}
	return &redisBackend{client: client, prefix: prefix}, nil
}

func (r *redisBackend) key(k string) string { return r.prefix + k }

func (r *redisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *redisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *redisBackend) Close() error {
	return r.client.Close()
}
