package kv

import (
	"context"
	"sync"
	"time"
)

// item represents a stored value with expiration
type item struct {
	value      string
	expiration int64
}

// expired checks if the item has expired
func (it item) expired() bool {
	if it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

// MemoryStore is a thread-safe in-memory Store implementation. It backs
// unit tests and local development where no Redis is running.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]item
	lists map[string][]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]item),
		lists: make(map[string][]string),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, found := m.items[key]
	if !found || it.expired() {
		delete(m.items, key)
		return "", ErrNotFound
	}
	return it.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = item{value: value, expiration: exp}
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, found := m.items[key]
	if !found {
		return false, nil
	}
	if it.expired() {
		delete(m.items, key)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	delete(m.lists, key)
	return nil
}

func (m *MemoryStore) LPush(ctx context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// LPUSH inserts one at a time, so earlier arguments end up further right
	for _, v := range values {
		m.lists[key] = append([]string{v}, m.lists[key]...)
	}
	return nil
}

func (m *MemoryStore) RPush(ctx context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists[key] = append(m.lists[key], values...)
	return nil
}

func (m *MemoryStore) RPop(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rpopLocked(key)
}

func (m *MemoryStore) rpopLocked(key string) (string, error) {
	list := m.lists[key]
	if len(list) == 0 {
		return "", ErrNotFound
	}
	v := list[len(list)-1]
	m.lists[key] = list[:len(list)-1]
	return v, nil
}

// BRPop polls the list until an element arrives, the timeout elapses or the
// context is cancelled. Polling keeps the implementation simple; contention
// only matters in the Redis-backed store, which blocks server-side.
func (m *MemoryStore) BRPop(ctx context.Context, key string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		m.mu.Lock()
		v, err := m.rpopLocked(key)
		m.mu.Unlock()
		if err == nil {
			return v, nil
		}

		if time.Now().After(deadline) {
			return "", ErrNotFound
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (m *MemoryStore) LLen(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.lists[key])), nil
}
