package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// GenerateKey returns a random UUID not currently in use.
func (m *MemoryStore) GenerateKey(ctx context.Context) (string, error) {
	for {
		key, err := generateKey()
		if err != nil {
			return "", err
		}
		m.mu.RLock()
		_, taken := m.sessions[key]
		m.mu.RUnlock()
		if !taken {
			return key, nil
		}
	}
}

// Get retrieves a session by key
func (m *MemoryStore) Get(ctx context.Context, key string) (*Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	if !session.IsExpired() {
		return session.Clone(), nil
	}

	// A Save may have replaced the record since the read lock was released.
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.sessions[key]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if current.IsExpired() {
		delete(m.sessions, key)
		return nil, ErrSessionNotFound
	}
	return current.Clone(), nil
}

// Save stores a copy of the session
func (m *MemoryStore) Save(ctx context.Context, session *Session) error {
	if err := validateForSave(session); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.Key] = session.Clone()
	return nil
}

// Delete removes a session by key
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)
	return nil
}

// DeleteExpired removes all expired sessions
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, key)
		}
	}

	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the cleanup goroutine
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

// cleanupLoop runs periodic cleanup of expired sessions
func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
