package auth

import (
	"context"

	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/session"
)

//go:generate go run go.uber.org/mock/mockgen -source=api.go -destination=mocks/mock_api.go -package=mocks

// API is the subset of the remote API the login flow drives. *client.Client
// satisfies it.
type API interface {
	ValidateCedula(ctx context.Context, cedula string) (*client.CedulaInfo, error)
	ValidateTemporaryPassword(ctx context.Context, cedula, temporaryPassword string) (*client.TemporaryGrant, error)
	ChangePassword(ctx context.Context, temporaryToken, cedula, newPassword string) (*client.AuthGrant, error)
	Login(ctx context.Context, cedula, password string) (*client.AuthGrant, error)
}

// SessionStore is where the flow records its outcome. *session.Resolver
// satisfies it.
type SessionStore interface {
	Commit(id session.Identity, token string) error
	SetTemporaryToken(token string) error
	TemporaryToken() (string, bool)
	ClearTemporaryToken() error
}

var (
	_ API          = (*client.Client)(nil)
	_ SessionStore = (*session.Resolver)(nil)
)
