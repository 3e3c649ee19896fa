// Package queue implements the durable work queue the webhook layer feeds
// and the processor drains. Three Redis lists exist per deployment: the
// main queue, a retry queue for failed events awaiting the next sweep, and
// a dead-letter queue for events that exhausted their retries.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/autoreplyx/backend/pkg/kv"
)

// Suffixes appended to the base queue key
const (
	retrySuffix = ".retry"
	deadSuffix  = ".failed"
)

// Queue is an at-least-once FIFO over a kv.Store list. Workers pop from the
// tail, producers push to the head, and retry sweeps reinsert at the tail so
// retried events are picked up before new arrivals.
type Queue struct {
	store   kv.Store
	baseKey string
}

// New creates a queue rooted at baseKey
func New(store kv.Store, baseKey string) *Queue {
	return &Queue{store: store, baseKey: baseKey}
}

// Key returns the main queue key
func (q *Queue) Key() string { return q.baseKey }

// RetryKey returns the retry queue key
func (q *Queue) RetryKey() string { return q.baseKey + retrySuffix }

// DeadKey returns the dead-letter queue key
func (q *Queue) DeadKey() string { return q.baseKey + deadSuffix }

// Enqueue appends a payload to the main queue
func (q *Queue) Enqueue(ctx context.Context, payload string) error {
	return q.store.LPush(ctx, q.baseKey, payload)
}

// Dequeue blocks up to timeout for the next payload. It returns ("", false,
// nil) when the timeout elapses so the worker loop can recheck shutdown
// state.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	payload, err := q.store.BRPop(ctx, q.baseKey, timeout)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// PushRetry stores a failed payload for the next sweep
func (q *Queue) PushRetry(ctx context.Context, payload string) error {
	return q.store.LPush(ctx, q.RetryKey(), payload)
}

// PushDead moves a payload to the dead-letter queue. Dead letters are never
// drained automatically; they exist for operational review.
func (q *Queue) PushDead(ctx context.Context, payload string) error {
	return q.store.LPush(ctx, q.DeadKey(), payload)
}

// DrainRetry moves every entry currently on the retry queue back onto the
// main queue's consumer end, so retried events run before newly arriving
// ones. Returns the number of entries moved.
func (q *Queue) DrainRetry(ctx context.Context) (int, error) {
	length, err := q.store.LLen(ctx, q.RetryKey())
	if err != nil {
		return 0, err
	}

	moved := 0
	for i := int64(0); i < length; i++ {
		payload, err := q.store.RPop(ctx, q.RetryKey())
		if errors.Is(err, kv.ErrNotFound) {
			break
		}
		if err != nil {
			return moved, err
		}
		if err := q.store.RPush(ctx, q.baseKey, payload); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// Len returns the current depth of the main queue
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.store.LLen(ctx, q.baseKey)
}

// RetryLen returns the current depth of the retry queue
func (q *Queue) RetryLen(ctx context.Context) (int64, error) {
	return q.store.LLen(ctx, q.RetryKey())
}

// DeadLen returns the current depth of the dead-letter queue
func (q *Queue) DeadLen(ctx context.Context) (int64, error) {
	return q.store.LLen(ctx, q.DeadKey())
}
