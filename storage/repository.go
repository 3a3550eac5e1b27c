// Package storage provides the durable key-value abstraction the session
// resolver persists into. Keys live in namespaces; values are strings.
package storage

import "errors"

// ErrNotFound is returned by Get when the key (or its namespace) is absent.
var ErrNotFound = errors.New("not found")

// Tx stages writes inside Batch. The namespace is scoped to the batch, so
// methods don't require it.
type Tx interface {
	Put(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Repository defines the interface for durable key-value storage.
type Repository interface {
	Get(namespace, key string) (string, error)
	List(namespace string) ([]string, error)
	Put(namespace, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(namespace, key string) error
	// Batch applies every write staged by fn atomically. If fn returns an
	// error nothing is written.
	Batch(namespace string, fn func(tx Tx) error) error
}
