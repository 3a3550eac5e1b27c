package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type contextKey int

const grantKey contextKey = iota

type grantContext struct {
	token string
	grant Grant
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireGrant admits requests whose bearer token maps to a live grant of
// kind. The grant's last-access time is refreshed.
func (a *API) requireGrant(kind GrantKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, msgTokenMissing)
				return
			}
			grant, ok := a.sessions.Get(token)
			if !ok {
				a.audit.logFailure(AuditTokenRejected, r, "unknown or expired token")
				writeError(w, http.StatusUnauthorized, msgTokenInvalid)
				return
			}
			if grant.Kind != kind {
				a.audit.logFailure(AuditTokenRejected, r, "wrong token kind",
					slog.String("cedula", grant.Cedula), slog.String("kind", string(grant.Kind)))
				writeError(w, http.StatusForbidden, msgTokenForbidden)
				return
			}
			if _, err := a.users.get(grant.Cedula); err != nil {
				a.sessions.Delete(token)
				writeError(w, http.StatusUnauthorized, msgTokenInvalid)
				return
			}
			grant.LastAccessedAt = time.Now()
			a.sessions.Put(token, grant)

			ctx := context.WithValue(r.Context(), grantKey, grantContext{token: token, grant: grant})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func grantFromContext(ctx context.Context) (grantContext, bool) {
	gc, ok := ctx.Value(grantKey).(grantContext)
	return gc, ok
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
