package cache

import (
	"context"
	"time"
)

// Store represents the shared key-value interface used for confirmation
// tokens, sessions, and rate-limit counters. Implementations must enforce
// expiry themselves: a key past its TTL behaves exactly like an absent key.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Set stores a value. A positive ttl bounds the key's lifetime, zero
	// stores it without expiry, and a negative ttl writes a key that is
	// already past its lifetime and therefore behaves like an absent key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// GetDelete atomically reads and removes a key. Two concurrent calls for
	// the same key must not both observe the value.
	GetDelete(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
