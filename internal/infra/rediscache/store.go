// Package rediscache provides a Redis-backed cache for provider lookups.
package rediscache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// Store is a string key-value store with expiry.
type Store interface {
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Options represents Redis connection options.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore is a Store backed by a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis: addr=%s", opts.Addr)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the value of key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get key %s", key)
	}
	return val, true, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

// Close closes the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
