package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/storage/memory"
)

// sessionStoreTests runs the common suite against any SessionStore implementation.
func sessionStoreTests(t *testing.T, store SessionStore) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		store.Put("tok-1", Grant{
			Kind:           GrantAuth,
			Cedula:         "123",
			ExpiresAt:      time.Now().Add(time.Hour),
			LastAccessedAt: time.Now(),
		})
		got, ok := store.Get("tok-1")
		require.True(t, ok)
		assert.Equal(t, GrantAuth, got.Kind)
		assert.Equal(t, "123", got.Cedula)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, ok := store.Get("no-such-token")
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		store.Put("tok-del", Grant{Kind: GrantTemporary, ExpiresAt: time.Now().Add(time.Hour), LastAccessedAt: time.Now()})
		store.Delete("tok-del")
		_, ok := store.Get("tok-del")
		assert.False(t, ok)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		store.Delete("never-existed")
	})

	t.Run("Expired", func(t *testing.T) {
		store.Put("tok-exp", Grant{Kind: GrantAuth, ExpiresAt: time.Now().Add(-time.Second), LastAccessedAt: time.Now()})
		_, ok := store.Get("tok-exp")
		assert.False(t, ok)
	})
}

func TestMemorySessionStore(t *testing.T) {
	sessionStoreTests(t, NewMemorySessionStore(0))
}

func TestMemorySessionStoreIdleTimeout(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	store.Put("idle", Grant{ExpiresAt: time.Now().Add(time.Hour), LastAccessedAt: time.Now().Add(-2 * time.Minute)})
	_, ok := store.Get("idle")
	assert.False(t, ok)
}

func TestPersistentSessionStore(t *testing.T) {
	store := NewPersistentSessionStore(memory.NewRepository(), 0)
	defer store.Close()
	sessionStoreTests(t, store)
}

func TestPersistentSessionStoreHashesTokens(t *testing.T) {
	repo := memory.NewRepository()
	store := NewPersistentSessionStore(repo, 0)
	defer store.Close()

	store.Put("secret-token", Grant{Kind: GrantAuth, Cedula: "1", ExpiresAt: time.Now().Add(time.Hour)})
	keys, err := repo.List(grantNamespace)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotEqual(t, "secret-token", keys[0])
	assert.Equal(t, tokenKey("secret-token"), keys[0])
}

func TestPersistentSessionStoreSurvivesRestart(t *testing.T) {
	repo := memory.NewRepository()
	first := NewPersistentSessionStore(repo, 0)
	first.Put("tok", Grant{Kind: GrantAuth, Cedula: "9", ExpiresAt: time.Now().Add(time.Hour)})
	first.Close()

	second := NewPersistentSessionStore(repo, 0)
	defer second.Close()
	got, ok := second.Get("tok")
	require.True(t, ok)
	assert.Equal(t, "9", got.Cedula)
}

func TestPersistentSessionStoreSweep(t *testing.T) {
	repo := memory.NewRepository()
	store := NewPersistentSessionStore(repo, 0)
	defer store.Close()

	store.Put("live", Grant{ExpiresAt: time.Now().Add(time.Hour)})
	store.Put("dead", Grant{ExpiresAt: time.Now().Add(-time.Hour)})
	require.NoError(t, repo.Put(grantNamespace, "garbage", "{"))

	store.sweepExpired()
	keys, err := repo.List(grantNamespace)
	require.NoError(t, err)
	assert.Equal(t, []string{tokenKey("live")}, keys)
}
