package auth

import (
	"context"
	"sync"
	"time"
)

// MemorySessions is a process-local Revoker and Selections for tests and
// single-instance runs without Redis.
type MemorySessions struct {
	mu       sync.Mutex
	now      func() time.Time
	revoked  map[string]time.Time
	selected map[string]memorySelection
}

type memorySelection struct {
	id      string
	expires time.Time
}

func NewMemorySessions(now func() time.Time) *MemorySessions {
	if now == nil {
		now = time.Now
	}
	return &MemorySessions{
		now:      now,
		revoked:  make(map[string]time.Time),
		selected: make(map[string]memorySelection),
	}
}

func (m *MemorySessions) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until.After(m.now()) {
		m.revoked[jti] = until
	}
	return nil
}

func (m *MemorySessions) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

func (m *MemorySessions) Select(_ context.Context, jti, kind, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected[selectionKey(jti, kind)] = memorySelection{id: id, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessions) Selected(_ context.Context, jti, kind string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(selectionKey(jti, kind)), nil
}

func (m *MemorySessions) Clear(_ context.Context, jti, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selected, selectionKey(jti, kind))
	return nil
}

// lookup must be called with mu held.
func (m *MemorySessions) lookup(key string) string {
	sel, ok := m.selected[key]
	if !ok {
		return ""
	}
	if !sel.expires.After(m.now()) {
		delete(m.selected, key)
		return ""
	}
	return sel.id
}
