// Package uuid wraps github.com/google/uuid for the identifiers this module
// mints: request IDs and mock-server tokens.
package uuid

import "github.com/google/uuid"

// New returns a random (version 4) UUID in its canonical string form.
func New() string {
	return uuid.NewString()
}
