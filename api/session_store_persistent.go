package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/consorcioci/viernes/storage"
)

const (
	grantNamespace  = "grants"
	cleanupInterval = 5 * time.Minute
)

// PersistentSessionStore keeps grants in a storage.Repository so they
// survive server restarts. Records are keyed by the SHA-256 of the token;
// the token itself is never written.
type PersistentSessionStore struct {
	repo        storage.Repository
	idleTimeout time.Duration
	logger      *slog.Logger
	stopOnce    sync.Once
	stopCh      chan struct{}
}

var _ SessionStore = (*PersistentSessionStore)(nil)

// NewPersistentSessionStore creates a session store backed by repo and
// starts a background sweep of expired grants. idleTimeout of 0 disables
// idle timeout checking.
func NewPersistentSessionStore(repo storage.Repository, idleTimeout time.Duration) *PersistentSessionStore {
	s := &PersistentSessionStore{
		repo:        repo,
		idleTimeout: idleTimeout,
		logger:      slog.Default().With("component", "session-store"),
		stopCh:      make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup goroutine.
func (s *PersistentSessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *PersistentSessionStore) Get(token string) (Grant, bool) {
	key := tokenKey(token)
	data, err := s.repo.Get(grantNamespace, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("reading grant failed", "error", err)
		}
		return Grant{}, false
	}
	var grant Grant
	if err := json.Unmarshal([]byte(data), &grant); err != nil {
		_ = s.repo.Delete(grantNamespace, key)
		return Grant{}, false
	}
	if grant.stale(time.Now(), s.idleTimeout) {
		_ = s.repo.Delete(grantNamespace, key)
		return Grant{}, false
	}
	return grant, true
}

func (s *PersistentSessionStore) Put(token string, grant Grant) {
	data, err := json.Marshal(grant)
	if err != nil {
		return
	}
	if err := s.repo.Put(grantNamespace, tokenKey(token), string(data)); err != nil {
		s.logger.Warn("persisting grant failed", "error", err)
	}
}

func (s *PersistentSessionStore) Delete(token string) {
	_ = s.repo.Delete(grantNamespace, tokenKey(token))
}

// cleanupLoop periodically removes expired grants from storage.
func (s *PersistentSessionStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *PersistentSessionStore) sweepExpired() {
	keys, err := s.repo.List(grantNamespace)
	if err != nil {
		return
	}
	now := time.Now()
	var stale []string
	for _, key := range keys {
		data, err := s.repo.Get(grantNamespace, key)
		if err != nil {
			continue
		}
		var grant Grant
		if err := json.Unmarshal([]byte(data), &grant); err != nil || grant.stale(now, s.idleTimeout) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return
	}
	err = s.repo.Batch(grantNamespace, func(tx storage.Tx) error {
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sweeping expired grants failed", "error", err)
	}
}
