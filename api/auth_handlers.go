package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/consorcioci/viernes/auth"
	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/internal/uuid"
)

// ValidateCedula handles POST /auth/validate-cedula.
func (a *API) ValidateCedula(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ValidateCedulaRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	cedula := req.Cedula.String()
	if cedula == "" {
		writeError(w, http.StatusBadRequest, msgCedulaRequired)
		return
	}

	u, err := a.users.get(cedula)
	switch {
	case errors.Is(err, errUnknownCedula):
		a.audit.logEvent(AuditCedulaRejected, r, cedula, slog.String("reason", "unknown"))
		writeError(w, http.StatusNotFound, msgCedulaUnknown)
		return
	case errors.Is(err, errUserInactive):
		a.audit.logEvent(AuditCedulaRejected, r, cedula, slog.String("reason", "inactive"))
		writeError(w, http.StatusForbidden, msgUserInactive)
		return
	case err != nil:
		writeInternalError(w, "looking up cedula", err)
		return
	}

	next := client.NextStepNormalLogin
	if u.mustChange {
		next = client.NextStepTempLogin
	}
	a.audit.logEvent(AuditCedulaValidated, r, cedula, slog.String("next_step", next))
	writeData(w, CedulaResponse{NextStep: next, Cedula: u.cedula, Name: u.name})
}

// ValidateTemporaryPassword handles POST /auth/validate-temp-password.
func (a *API) ValidateTemporaryPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ValidateTempPasswordRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	cedula := req.Cedula.String()
	if cedula == "" {
		writeError(w, http.StatusBadRequest, msgCedulaRequired)
		return
	}
	if req.TemporaryPassword == "" {
		writeError(w, http.StatusBadRequest, msgPasswordRequired)
		return
	}
	if !a.admitLogin(w, r, cedula) {
		return
	}

	u, ok := a.users.checkTemporary(cedula, req.TemporaryPassword)
	if !ok {
		a.recordLoginFailure(r, cedula, "bad temporary password")
		writeError(w, http.StatusUnauthorized, msgBadTemporary)
		return
	}
	a.recordLoginSuccess(cedula)

	token := a.issue(GrantTemporary, u.cedula, a.tempTokenTTL)
	a.audit.logEvent(AuditTempPasswordOK, r, u.cedula)
	writeData(w, TemporaryTokenResponse{
		TemporaryToken: token,
		ExpiresIn:      int(a.tempTokenTTL.Seconds()),
	})
}

// ChangePassword handles POST /auth/change-password. The bearer is the
// temporary token; it is consumed on success.
func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	req, ok := decodeJSON[ChangePasswordRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if c := req.Cedula.String(); c != "" && c != gc.grant.Cedula {
		a.audit.logEvent(AuditPasswordRejected, r, gc.grant.Cedula, slog.String("reason", "cedula mismatch"))
		writeError(w, http.StatusForbidden, msgTokenForbidden)
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, msgPasswordRequired)
		return
	}
	if errs := auth.ValidatePassword(req.NewPassword); len(errs) > 0 {
		a.audit.logEvent(AuditPasswordRejected, r, gc.grant.Cedula, slog.String("reason", errs[0].Error()))
		writeError(w, http.StatusBadRequest, msgPasswordPolicy)
		return
	}

	u, err := a.users.setPassword(gc.grant.Cedula, req.NewPassword)
	if err != nil {
		writeInternalError(w, "storing new password", err)
		return
	}
	a.sessions.Delete(gc.token)

	token := a.issue(GrantAuth, u.cedula, a.authTokenTTL)
	a.audit.logEvent(AuditPasswordChanged, r, u.cedula)
	writeData(w, a.authResponse(u, token))
}

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	cedula := req.Cedula.String()
	if cedula == "" {
		writeError(w, http.StatusBadRequest, msgCedulaRequired)
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, msgPasswordRequired)
		return
	}
	if !a.admitLogin(w, r, cedula) {
		return
	}

	if u, err := a.users.get(cedula); err == nil && u.mustChange {
		a.audit.logEvent(AuditLoginFailure, r, cedula, slog.String("reason", "password change pending"))
		writeError(w, http.StatusForbidden, msgMustChange)
		return
	}
	u, ok := a.users.checkPassword(cedula, req.Password)
	if !ok {
		a.recordLoginFailure(r, cedula, "bad credentials")
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	a.recordLoginSuccess(cedula)

	token := a.issue(GrantAuth, u.cedula, a.authTokenTTL)
	a.audit.logEvent(AuditLoginSuccess, r, u.cedula, slog.String("cargo", u.cargo))
	writeData(w, a.authResponse(u, token))
}

// Logout handles POST /auth/logout.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	a.sessions.Delete(gc.token)
	a.audit.logEvent(AuditLogout, r, gc.grant.Cedula)
	writeMessage(w, "Sesión cerrada")
}

// VerifyToken handles GET /auth/verify-token.
func (a *API) VerifyToken(w http.ResponseWriter, r *http.Request) {
	gc, _ := grantFromContext(r.Context())
	u, err := a.users.get(gc.grant.Cedula)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgTokenInvalid)
		return
	}
	writeData(w, ProfileResponse{Cedula: u.cedula, Name: u.name, Cargo: u.cargo})
}

func (a *API) issue(kind GrantKind, cedula string, ttl time.Duration) string {
	token := uuid.New()
	now := time.Now()
	a.sessions.Put(token, Grant{
		Kind:           kind,
		Cedula:         cedula,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	})
	return token
}

func (a *API) authResponse(u user, token string) AuthResponse {
	return AuthResponse{
		AuthToken: token,
		Cedula:    u.cedula,
		Name:      u.name,
		Cargo:     u.cargo,
		ExpiresIn: int(a.authTokenTTL.Seconds()),
	}
}

// admitLogin applies the per-IP then per-cedula lockouts. It writes the
// 429 and returns false when either is active.
func (a *API) admitLogin(w http.ResponseWriter, r *http.Request, cedula string) bool {
	ip := a.clientIP(r)
	if blocked, retryAfter := a.ipLimiter.check(ip); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "ip locked out", slog.String("client_ip", ip))
		writeRateLimited(w, retryAfter)
		return false
	}
	if blocked, retryAfter := a.cedulaLimiter.check(cedula); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "cedula locked out", slog.String("cedula", cedula))
		writeRateLimited(w, retryAfter)
		return false
	}
	return true
}

func (a *API) recordLoginFailure(r *http.Request, cedula, reason string) {
	a.ipLimiter.recordFailure(a.clientIP(r))
	a.cedulaLimiter.recordFailure(cedula)
	a.audit.logEvent(AuditLoginFailure, r, cedula, slog.String("reason", reason))
}

// recordLoginSuccess clears the cedula's failures. The IP record is left to
// expire so one valid account cannot unlock a sprayed address.
func (a *API) recordLoginSuccess(cedula string) {
	a.cedulaLimiter.recordSuccess(cedula)
}
