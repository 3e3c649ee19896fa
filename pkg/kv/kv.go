// Package kv defines the key-value store interface shared by the cooldown
// markers, the AI response cache and the work queues. The production
// implementation is Redis (shared/redis); tests use the in-memory store.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or a list is empty.
// A blocking pop that times out also returns ErrNotFound.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal contract the pipeline needs from a key-value backend:
// string values with expiry plus ordered lists with a blocking pop.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A zero or negative ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)
	// Del removes key.
	Del(ctx context.Context, key string) error

	// LPush prepends values to the list at key.
	LPush(ctx context.Context, key string, values ...string) error
	// RPush appends values to the list at key.
	RPush(ctx context.Context, key string, values ...string) error
	// RPop removes and returns the last element of the list at key,
	// or ErrNotFound if the list is empty.
	RPop(ctx context.Context, key string) (string, error)
	// BRPop blocks up to timeout waiting for an element at the tail of the
	// list at key. Returns ErrNotFound when the timeout elapses.
	BRPop(ctx context.Context, key string, timeout time.Duration) (string, error)
	// LLen returns the length of the list at key.
	LLen(ctx context.Context, key string) (int64, error)
}
