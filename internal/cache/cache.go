// Package cache provides key/value stores for similarity scores.
package cache

import (
	"context"
	"time"
)

// Cache stores float scores with a time-to-live.
// Get reports found=false for missing or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) (value float64, found bool, err error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
	Close() error
}

// NopCache never stores anything.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(ctx context.Context, key string) (float64, bool, error) { return 0, false, nil }

// Set discards the value.
func (NopCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	return nil
}

// Close is a no-op.
func (NopCache) Close() error { return nil }
