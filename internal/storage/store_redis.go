package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each slot as a plain string value without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses redisURL, connects and pings before returning.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	s := NewRedisStoreFromClient(redis.NewClient(opt))
	if err := s.Ping(ctx); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return s, nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	var v string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		v, err = s.client.Get(ctx, key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.client.Set(ctx, key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
