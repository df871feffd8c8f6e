package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "encore/internal/cache/iface"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]entry
	lists  map[string][]string
	now    func() time.Time
}

// NewMemoryCache returns a process-local Cache, used when no Redis address is configured
func NewMemoryCache() cache.Cache {
	return &memoryCache{
		values: make(map[string]entry),
		lists:  make(map[string][]string),
		now:    time.Now,
	}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: fmt.Sprint(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.values[key] = e
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.values[key]
	if !ok || (!e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)) {
		delete(m.values, key)
		return "", fmt.Errorf("%w: %s", cache.ErrCacheMiss, key)
	}
	return e.value, nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	delete(m.lists, key)
	return nil
}

func (m *memoryCache) RPush(ctx context.Context, key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range values {
		m.lists[key] = append(m.lists[key], fmt.Sprint(v))
	}
	return nil
}

func (m *memoryCache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[key]
	from, to, ok := listBounds(len(list), start, stop)
	if !ok {
		return []string{}, nil
	}
	out := make([]string, to-from+1)
	copy(out, list[from:to+1])
	return out, nil
}

func (m *memoryCache) LTrim(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[key]
	from, to, ok := listBounds(len(list), start, stop)
	if !ok {
		delete(m.lists, key)
		return nil
	}
	m.lists[key] = append([]string(nil), list[from:to+1]...)
	return nil
}

func (m *memoryCache) Close() error {
	return nil
}

// listBounds resolves Redis-style (possibly negative) inclusive indexes against a list of length n
func listBounds(n int, start, stop int64) (int, int, bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if size == 0 || start > stop {
		return 0, 0, false
	}
	return int(start), int(stop), true
}
