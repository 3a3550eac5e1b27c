package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditCedulaValidated  AuditEvent = "cedula_validated"
	AuditCedulaRejected   AuditEvent = "cedula_rejected"
	AuditTempPasswordOK   AuditEvent = "temp_password_validated"
	AuditLoginSuccess     AuditEvent = "login_success"
	AuditLoginFailure     AuditEvent = "login_failure"
	AuditLoginRateLimited AuditEvent = "login_rate_limited"
	AuditRateLimited      AuditEvent = "rate_limited"
	AuditPasswordChanged  AuditEvent = "password_changed"
	AuditPasswordRejected AuditEvent = "password_rejected"
	AuditLogout           AuditEvent = "logout"
	AuditTokenRejected    AuditEvent = "token_rejected"
	AuditConsulta         AuditEvent = "consulta"
)

// auditLogger wraps slog.Logger for structured security audit logging and
// fans events out to the anomaly detector and an optional webhook.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
	webhook *auditWebhook
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry. Passwords and tokens never
// appear in attrs.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	now := time.Now().UTC()
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		baseAttrs = append(baseAttrs, slog.String("request_id", id))
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)

	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
	if al.webhook != nil {
		evt := webhookEvent{
			Event:      string(event),
			RemoteAddr: r.RemoteAddr,
			Timestamp:  now.Format(time.RFC3339),
		}
		for _, a := range attrs {
			if a.Key == "cedula" {
				evt.Cedula = a.Value.String()
				continue
			}
			if evt.Attrs == nil {
				evt.Attrs = make(map[string]string)
			}
			evt.Attrs[a.Key] = a.Value.String()
		}
		al.webhook.enqueue(evt)
	}
}

// logEvent is a convenience for events tied to a cedula.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, cedula string, extra ...slog.Attr) {
	attrs := []slog.Attr{slog.String("cedula", cedula)}
	al.log(event, r, append(attrs, extra...)...)
}

// logFailure logs a refused request with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{slog.String("reason", reason)}
	al.log(event, r, append(attrs, extra...)...)
}

func (al *auditLogger) close() {
	if al.webhook != nil {
		al.webhook.close()
	}
}
