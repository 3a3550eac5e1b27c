package api

import "time"

// GrantKind distinguishes the two bearer tokens the server issues.
type GrantKind string

const (
	// GrantTemporary authorizes only the password change.
	GrantTemporary GrantKind = "temporary"
	// GrantAuth is a full session.
	GrantAuth GrantKind = "auth"
)

// SessionStore abstracts grant CRUD so that tokens can live in memory
// (default) or in persistent backing storage.
type SessionStore interface {
	// Get retrieves a grant by token. Returns false if the grant does not
	// exist, has expired, or has exceeded the idle timeout.
	Get(token string) (Grant, bool)
	// Put creates or updates the grant for token.
	Put(token string, grant Grant)
	// Delete removes a grant by token.
	Delete(token string)
}

// Grant is the server-side state behind a bearer token.
type Grant struct {
	Kind           GrantKind `json:"kind"`
	Cedula         string    `json:"cedula"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

func (g Grant) stale(now time.Time, idleTimeout time.Duration) bool {
	if now.After(g.ExpiresAt) {
		return true
	}
	return idleTimeout > 0 && now.Sub(g.LastAccessedAt) > idleTimeout
}
