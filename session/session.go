// Package session is the single owner of the persisted login state: the
// bearer token, the temporary token of a pending password change, and the
// identity and role of the signed-in user. Nothing else reads or writes the
// session namespace of the store.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/storage"
)

// Namespace is the storage namespace holding the session keys.
const Namespace = "session"

// Persisted keys. All are removed together on Clear.
const (
	KeyAuthToken      = "authToken"
	KeyTemporaryToken = "temporaryToken"
	KeyUserCedula     = "userCedula"
	KeyUserName       = "userName"
	KeyUserCargo      = "userCargo"
	KeyUserRole       = "userRole"
)

var allKeys = []string{KeyAuthToken, KeyTemporaryToken, KeyUserCedula, KeyUserName, KeyUserCargo, KeyUserRole}

// ErrEmptyToken is returned when asked to persist an empty credential.
var ErrEmptyToken = errors.New("session: empty token")

// Identity is who the server says the user is.
type Identity struct {
	Cedula string `json:"cedula"`
	Name   string `json:"name"`
	Cargo  string `json:"cargo,omitempty"`
}

// User is the signed-in identity together with its derived role.
type User struct {
	Identity
	Role access.Role `json:"role"`
}

// Resolver answers "who is the current user and what may they see".
type Resolver struct {
	repo   storage.Repository
	policy *access.Policy
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPolicy replaces the default access policy.
func WithPolicy(p *access.Policy) Option {
	return func(r *Resolver) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithLogger sets the logger used for storage failures and session events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a Resolver persisting into repo.
func New(repo storage.Repository, opts ...Option) *Resolver {
	r := &Resolver{
		repo:   repo,
		policy: access.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "session")
	return r
}

// Policy returns the access policy roles are derived with.
func (r *Resolver) Policy() *access.Policy { return r.policy }

// get reads key; empty values count as absent. Read failures are logged and
// treated as absent so that queries degrade to the anonymous answer.
func (r *Resolver) get(key string) (string, bool) {
	v, err := r.repo.Get(Namespace, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("session read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, v != ""
}

// Commit stores token, identity and the role derived from identity.Cargo in
// one batch, replacing any previous session and dropping a pending
// temporary token.
func (r *Resolver) Commit(id Identity, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	role := r.policy.DeriveRole(id.Cargo)
	err := r.repo.Batch(Namespace, func(tx storage.Tx) error {
		if err := tx.Put(KeyAuthToken, token); err != nil {
			return err
		}
		if err := putOrDelete(tx, KeyUserCedula, id.Cedula); err != nil {
			return err
		}
		if err := putOrDelete(tx, KeyUserName, id.Name); err != nil {
			return err
		}
		if err := putOrDelete(tx, KeyUserCargo, id.Cargo); err != nil {
			return err
		}
		if err := tx.Put(KeyUserRole, string(role)); err != nil {
			return err
		}
		return tx.Delete(KeyTemporaryToken)
	})
	if err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	r.logger.Info("session committed", "cedula", id.Cedula, "role", role)
	return nil
}

// Refresh overwrites the stored identity with the non-empty fields of id,
// re-deriving the role when a cargo is given. The token is untouched.
func (r *Resolver) Refresh(id Identity) error {
	err := r.repo.Batch(Namespace, func(tx storage.Tx) error {
		if id.Name != "" {
			if err := tx.Put(KeyUserName, id.Name); err != nil {
				return err
			}
		}
		if id.Cedula != "" {
			if err := tx.Put(KeyUserCedula, id.Cedula); err != nil {
				return err
			}
		}
		if id.Cargo != "" {
			if err := tx.Put(KeyUserCargo, id.Cargo); err != nil {
				return err
			}
			return tx.Put(KeyUserRole, string(r.policy.DeriveRole(id.Cargo)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("refreshing session: %w", err)
	}
	return nil
}

// Clear removes every session key. Clearing an empty session is a no-op.
func (r *Resolver) Clear() error {
	err := r.repo.Batch(Namespace, func(tx storage.Tx) error {
		for _, k := range allKeys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user. ok is false unless the token,
// cedula and name are all present.
func (r *Resolver) CurrentUser() (User, bool) {
	if _, ok := r.get(KeyAuthToken); !ok {
		return User{}, false
	}
	cedula, ok := r.get(KeyUserCedula)
	if !ok {
		return User{}, false
	}
	name, ok := r.get(KeyUserName)
	if !ok {
		return User{}, false
	}
	cargo, _ := r.get(KeyUserCargo)
	return User{
		Identity: Identity{Cedula: cedula, Name: name, Cargo: cargo},
		Role:     r.Role(),
	}, true
}

// IsAuthenticated reports whether a bearer token is stored.
func (r *Resolver) IsAuthenticated() bool {
	_, ok := r.get(KeyAuthToken)
	return ok
}

// Token returns the stored bearer token.
func (r *Resolver) Token() (string, bool) {
	return r.get(KeyAuthToken)
}

// Role returns the current role. Anonymous sessions are access.LowestRole;
// a missing or corrupt cached role is re-derived from the stored cargo.
func (r *Resolver) Role() access.Role {
	if !r.IsAuthenticated() {
		return access.LowestRole
	}
	if v, ok := r.get(KeyUserRole); ok {
		if role, ok := access.ParseRole(v); ok {
			return role
		}
	}
	if cargo, ok := r.get(KeyUserCargo); ok {
		return r.policy.DeriveRole(cargo)
	}
	return access.LowestRole
}

// HasRole reports whether the current role is exactly role.
func (r *Resolver) HasRole(role access.Role) bool {
	return r.Role() == role
}

// HasAnyRole reports whether the current role is one of roles.
func (r *Resolver) HasAnyRole(roles ...access.Role) bool {
	current := r.Role()
	for _, role := range roles {
		if role == current {
			return true
		}
	}
	return false
}

// HasPermission reports whether the current role carries perm.
func (r *Resolver) HasPermission(perm access.Permission) bool {
	return r.policy.HasPermission(r.Role(), perm)
}

// CanAccessTab reports whether the current role may open tab. Unknown tabs
// are always denied.
func (r *Resolver) CanAccessTab(tab string) bool {
	return r.HasAnyRole(r.policy.AllowedRoles(tab)...)
}

// VisibleTabs filters menu down to the tabs the current role may open.
func (r *Resolver) VisibleTabs(menu []access.MenuTab) []access.MenuTab {
	return r.policy.VisibleTabs(r.Role(), menu)
}

// SetTemporaryToken stores the credential that authorizes only the
// password-change step.
func (r *Resolver) SetTemporaryToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := r.repo.Put(Namespace, KeyTemporaryToken, token); err != nil {
		return fmt.Errorf("storing temporary token: %w", err)
	}
	return nil
}

// TemporaryToken returns the pending password-change credential.
func (r *Resolver) TemporaryToken() (string, bool) {
	return r.get(KeyTemporaryToken)
}

// ClearTemporaryToken drops the pending password-change credential.
func (r *Resolver) ClearTemporaryToken() error {
	if err := r.repo.Delete(Namespace, KeyTemporaryToken); err != nil {
		return fmt.Errorf("clearing temporary token: %w", err)
	}
	return nil
}

func putOrDelete(tx storage.Tx, key, value string) error {
	if value == "" {
		return tx.Delete(key)
	}
	return tx.Put(key, value)
}
