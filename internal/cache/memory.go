package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Store. Entries vanish on restart.
type Memory struct {
	items  *gocache.Cache
	prefix string
}

// NewMemory creates a Memory store. Expired entries are purged every defaultTTL/2,
// at most once a minute.
func NewMemory(defaultTTL time.Duration, prefix string) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	cleanup := time.Minute
	if defaultTTL > 0 && defaultTTL/2 > cleanup {
		cleanup = defaultTTL / 2
	}
	return &Memory{items: gocache.New(defaultTTL, cleanup), prefix: prefix}
}

// Get returns a copy of the stored bytes.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := m.items.Get(m.prefix + key)
	if !found {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of value. A zero ttl uses the store default.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(m.prefix+key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes key if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Delete(m.prefix + key)
	return nil
}

// Len reports the number of unexpired entries.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

// Close flushes all entries.
func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
