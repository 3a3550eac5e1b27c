package client

import (
	"context"
	"net/http"
)

// ValidateCedula asks the server how the holder of cedula must log in.
func (c *Client) ValidateCedula(ctx context.Context, cedula string) (*CedulaInfo, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/validate-cedula",
		body:   map[string]string{"cedula": cedula},
	})
	if err != nil {
		return nil, err
	}
	var info CedulaInfo
	if err := decodeData(env.Data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ValidateTemporaryPassword exchanges a temporary password for a temporary
// token.
func (c *Client) ValidateTemporaryPassword(ctx context.Context, cedula, temporaryPassword string) (*TemporaryGrant, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/validate-temp-password",
		body:   map[string]string{"cedula": cedula, "temporaryPassword": temporaryPassword},
	})
	if err != nil {
		return nil, err
	}
	var grant TemporaryGrant
	if err := decodeData(env.Data, &grant); err != nil {
		return nil, err
	}
	if grant.TemporaryToken == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.message()}
	}
	return &grant, nil
}

// ChangePassword sets the definitive password, authorized by the temporary
// token, and returns the resulting session grant.
func (c *Client) ChangePassword(ctx context.Context, temporaryToken, cedula, newPassword string) (*AuthGrant, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/change-password",
		token:  temporaryToken,
		body:   map[string]string{"cedula": cedula, "newPassword": newPassword},
	})
	if err != nil {
		return nil, err
	}
	return authGrant(env)
}

// Login authenticates with a definitive password.
func (c *Client) Login(ctx context.Context, cedula, password string) (*AuthGrant, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/login",
		body:   map[string]string{"cedula": cedula, "password": password},
	})
	if err != nil {
		return nil, err
	}
	return authGrant(env)
}

// Logout invalidates authToken server side. Callers clear local state
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context, authToken string) error {
	if authToken == "" {
		return ErrNotAuthenticated
	}
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/logout",
		token:  authToken,
	})
	return err
}

// VerifyToken checks authToken and returns the identity the server has on
// file for it.
func (c *Client) VerifyToken(ctx context.Context, authToken string) (*Profile, error) {
	if authToken == "" {
		return nil, ErrNotAuthenticated
	}
	env, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "auth/verify-token",
		token:  authToken,
	})
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := decodeData(env.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func authGrant(env *envelope) (*AuthGrant, error) {
	var grant AuthGrant
	if err := decodeData(env.Data, &grant); err != nil {
		return nil, err
	}
	if grant.AuthToken == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.message()}
	}
	return &grant, nil
}
