// Package storage holds the durable key-value slots carts are saved to.
package storage

import (
	"context"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

var ErrEmptyKey = errors.New("storage: empty key")

// Store is a string key-value store. Get reports ok=false for an absent key;
// that is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
