package api

import (
	"sync"
	"time"
)

// MemorySessionStore is a thread-safe in-memory SessionStore.
// Grants are lost on server restart.
type MemorySessionStore struct {
	mu          sync.RWMutex
	data        map[string]Grant
	idleTimeout time.Duration
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store.
// idleTimeout of 0 disables idle timeout checking.
func NewMemorySessionStore(idleTimeout time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		data:        make(map[string]Grant),
		idleTimeout: idleTimeout,
	}
}

func (s *MemorySessionStore) Get(token string) (Grant, bool) {
	s.mu.RLock()
	grant, ok := s.data[token]
	s.mu.RUnlock()
	if !ok {
		return Grant{}, false
	}
	if grant.stale(time.Now(), s.idleTimeout) {
		s.Delete(token)
		return Grant{}, false
	}
	return grant, true
}

func (s *MemorySessionStore) Put(token string, grant Grant) {
	s.mu.Lock()
	s.data[token] = grant
	s.mu.Unlock()
}

func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
}
