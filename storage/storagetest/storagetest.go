// Package storagetest holds the behaviour every storage.Repository backend
// must share. Backend tests call Run with a fresh repository.
package storagetest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/storage"
)

var errAbort = errors.New("abort batch")

// Run exercises repo against the storage.Repository contract. Each subtest
// uses its own namespace so shared backends need no cleanup between them.
func Run(t *testing.T, repo storage.Repository) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, repo.Put("put-get", "authToken", "T1"))
		got, err := repo.Get("put-get", "authToken")
		require.NoError(t, err)
		assert.Equal(t, "T1", got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, repo.Put("overwrite", "userName", "Ana"))
		require.NoError(t, repo.Put("overwrite", "userName", "Beatriz"))
		got, err := repo.Get("overwrite", "userName")
		require.NoError(t, err)
		assert.Equal(t, "Beatriz", got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.Get("missing-namespace", "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, repo.Put("missing-key", "present", "x"))
		_, err = repo.Get("missing-key", "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		require.NoError(t, repo.Put("empty-value", "k", ""))
		got, err := repo.Get("empty-value", "k")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Put("delete", "k", "v"))
		require.NoError(t, repo.Delete("delete", "k"))
		_, err := repo.Get("delete", "k")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		// Missing keys and namespaces are not errors.
		assert.NoError(t, repo.Delete("delete", "k"))
		assert.NoError(t, repo.Delete("never-created", "k"))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, repo.Put("list", "b", "2"))
		require.NoError(t, repo.Put("list", "a", "1"))
		require.NoError(t, repo.Put("list-other", "c", "3"))
		keys, err := repo.List("list")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, keys)

		keys, err = repo.List("list-none")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("BatchCommits", func(t *testing.T) {
		require.NoError(t, repo.Put("batch", "stale", "x"))
		err := repo.Batch("batch", func(tx storage.Tx) error {
			if err := tx.Put("a", "1"); err != nil {
				return err
			}
			if err := tx.Put("b", "2"); err != nil {
				return err
			}
			return tx.Delete("stale")
		})
		require.NoError(t, err)

		keys, err := repo.List("batch")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, keys)
	})

	t.Run("BatchRollsBack", func(t *testing.T) {
		require.NoError(t, repo.Put("rollback", "keep", "original"))
		err := repo.Batch("rollback", func(tx storage.Tx) error {
			if err := tx.Put("keep", "changed"); err != nil {
				return err
			}
			if err := tx.Put("new", "value"); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		got, err := repo.Get("rollback", "keep")
		require.NoError(t, err)
		assert.Equal(t, "original", got)
		_, err = repo.Get("rollback", "new")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("BatchDeleteMissing", func(t *testing.T) {
		err := repo.Batch("batch-delete-missing", func(tx storage.Tx) error {
			return tx.Delete("nothing-here")
		})
		assert.NoError(t, err)
	})
}
