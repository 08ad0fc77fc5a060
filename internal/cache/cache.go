// Package cache provides the key/value store used for derived stats and
// per-monitor in-flight locks.
//
// Entries carry a TTL unless noted otherwise. Callers treat the cache as an
// optimization: any error it returns must be survivable.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulsewatch/internal/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a TTL key/value store.
type Cache interface {
	// Get returns the value stored at key or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key for ttl, replacing any existing value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// SetNX stores value at key only if the key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// CompareAndDelete removes key only while it still holds value and
	// reports whether it did.
	CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error)

	// Incr atomically increments the integer counter at key and returns the
	// new value. An absent key starts at zero and never expires.
	Incr(ctx context.Context, key string) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// New creates the cache selected by cfg.Driver.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "redis":
		r, err := NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "none":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// Disabled is a cache that never stores anything.
//
// SetNX always succeeds, so locks built on it never block.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Disabled) Delete(context.Context, string) error { return nil }

func (Disabled) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}

func (Disabled) CompareAndDelete(context.Context, string, []byte) (bool, error) {
	return true, nil
}

func (Disabled) Incr(context.Context, string) (int64, error) { return 0, nil }

func (Disabled) Ping(context.Context) error { return nil }

func (Disabled) Close() error { return nil }
