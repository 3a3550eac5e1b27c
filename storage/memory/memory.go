// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/consorcioci/viernes/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string]string)}
}

func (r *Repository) Get(namespace, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[namespace][key]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, storage.ErrNotFound)
	}
	return v, nil
}

func (r *Repository) List(namespace string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.data[namespace]))
	for k := range r.data[namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Repository) Put(namespace, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(namespace, key, value)
	return nil
}

func (r *Repository) putLocked(namespace, key, value string) {
	if _, ok := r.data[namespace]; !ok {
		r.data[namespace] = make(map[string]string)
	}
	r.data[namespace][key] = value
}

func (r *Repository) Delete(namespace, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data[namespace], key)
	return nil
}

// Batch executes fn within a batch transaction. On error, all writes are rolled back.
func (r *Repository) Batch(namespace string, fn func(tx storage.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot(namespace)

	if err := fn(&memoryTx{repo: r, namespace: namespace}); err != nil {
		r.restore(namespace, snapshot)
		return err
	}
	return nil
}

func (r *Repository) snapshot(namespace string) map[string]string {
	original, ok := r.data[namespace]
	if !ok {
		return nil
	}
	cp := make(map[string]string, len(original))
	for k, v := range original {
		cp[k] = v
	}
	return cp
}

func (r *Repository) restore(namespace string, snapshot map[string]string) {
	if snapshot == nil {
		delete(r.data, namespace)
	} else {
		r.data[namespace] = snapshot
	}
}

type memoryTx struct {
	repo      *Repository
	namespace string
}

func (tx *memoryTx) Put(key, value string) error {
	tx.repo.putLocked(tx.namespace, key, value)
	return nil
}

func (tx *memoryTx) Delete(key string) error {
	delete(tx.repo.data[tx.namespace], key)
	return nil
}
