package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
)

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process memory with the same TTL semantics
// as the Redis backend. Values are stored serialized so callers never share
// slices with the stored copy.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type MemoryOption func(*MemoryBackend)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryBackend) Get(_ context.Context, address string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.live(address)
	if !ok {
		return domain.Session{}, false, nil
	}
	var s domain.Session
	if err := json.Unmarshal(item.payload, &s); err != nil {
		delete(m.items, address)
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, address string, s domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge()
	m.items[address] = memoryItem{payload: payload, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, address)
	return nil
}

func (m *MemoryBackend) DeleteIfVersion(_ context.Context, address string, version int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.live(address)
	if !ok {
		return false, nil
	}
	var s domain.Session
	if err := json.Unmarshal(item.payload, &s); err != nil || s.Version != version {
		return false, nil
	}
	delete(m.items, address)
	return true, nil
}

// Len returns the number of unexpired sessions.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge()
	return len(m.items)
}

// live must be called with mu held.
func (m *MemoryBackend) live(address string) (memoryItem, bool) {
	item, ok := m.items[address]
	if !ok {
		return memoryItem{}, false
	}
	if !m.now().Before(item.expiresAt) {
		delete(m.items, address)
		return memoryItem{}, false
	}
	return item, true
}

// purge must be called with mu held.
func (m *MemoryBackend) purge() {
	now := m.now()
	for k, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, k)
		}
	}
}

var _ Backend = (*MemoryBackend)(nil)
