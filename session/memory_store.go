package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// MemoryStore is an in-process Store with TTL expiry
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, userID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok || m.expired(s) {
		return Idle(), nil
	}
	return s, nil
}

func (m *MemoryStore) Set(ctx context.Context, userID int64, s Session) error {
	if s.IsIdle() {
		return m.Clear(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = m.now()
	m.sessions[userID] = s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// Cleanup removes expired sessions and returns how many were dropped
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s Session) bool {
	return m.now().Sub(s.UpdatedAt) > m.ttl
}

// StartCleanupWorker periodically drops expired sessions.
// Returns a cleanup function to stop the worker gracefully.
func (m *MemoryStore) StartCleanupWorker(ctx context.Context, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	go func() {
		log.Info("Session cleanup worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Session cleanup worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Session cleanup worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				if removed := m.Cleanup(); removed > 0 {
					log.WithField("removed", removed).Debug("Cleaned up expired sessions")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(stopChan)
		})
	}
}
