package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

const memoryWarning = "memory session store in use outside development: it does not scale and sessions are lost on restart"

// MemoryStore keeps sessions in a process-local map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// MemoryConfig configures [NewMemory].
type MemoryConfig struct {
	TTL         time.Duration
	Development bool
	Logger      hclog.Logger
	Now         func() time.Time
}

// NewMemory returns an empty in-process store. Outside development mode it
// logs a warning because sessions are neither shared nor durable.
func NewMemory(cfg MemoryConfig) *MemoryStore {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.Default()
	}
	if !cfg.Development {
		logger.Warn(memoryWarning)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      cfg.TTL,
		now:      now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if sess, ok := m.sessions[id]; ok && !sess.expired(now) {
		return nil
	}
	m.sessions[id] = newSession(id, now, m.ttl)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if sess.expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.sessions[id]; ok && cur.expired(m.now()) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
