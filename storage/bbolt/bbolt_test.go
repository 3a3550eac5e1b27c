package bbolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/consorcioci/viernes/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	return s, path
}

func TestBBoltStorage(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close()

	storagetest.Run(t, s)
}

func TestBBoltSurvivesReopen(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Put("session", "authToken", "T1"))
	require.NoError(t, s.Close())

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	reopened := NewRepository(db)
	defer reopened.Close()

	got, err := reopened.Get("session", "authToken")
	require.NoError(t, err)
	assert.Equal(t, "T1", got)
}
