// Package api is a development stand-in for the operations portal backend.
// It serves the authentication and consultation contract the client package
// speaks, against an in-memory user directory and synthetic readings.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"golang.org/x/time/rate"

	"github.com/consorcioci/viernes/storage"
	"github.com/consorcioci/viernes/storage/memory"
)

const (
	defaultTempTokenTTL = 10 * time.Minute
	defaultAuthTokenTTL = 8 * time.Hour
	maxAuthBodySize     = 4 << 10
	maxConsultaBodySize = 16 << 10
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	users             *Directory
	sessions          SessionStore
	repo              storage.Repository
	data              *dataset
	cedulaLimiter     *loginRateLimiter
	ipLimiter         *loginRateLimiter
	authLimiter       *rate.Limiter
	audit             *auditLogger
	trustedProxies    []netip.Prefix
	tempTokenTTL      time.Duration
	authTokenTTL      time.Duration
	consultaRetention int
	specURL           string
	logger            *slog.Logger

	alertFn       AlertFunc
	webhookURL    string
	webhookHeader string
	seed          uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request and audit logs.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithSessionStore replaces the in-memory grant store.
func WithSessionStore(s SessionStore) Option {
	return func(a *API) { a.sessions = s }
}

// WithRepository sets where the consultation log is kept.
func WithRepository(repo storage.Repository) Option {
	return func(a *API) { a.repo = repo }
}

// WithTrustedProxies lists the proxies whose forwarding headers are
// believed when attributing failed logins to a client IP.
func WithTrustedProxies(prefixes ...netip.Prefix) Option {
	return func(a *API) { a.trustedProxies = prefixes }
}

// WithAlertFunc enables anomaly detection; fn is called on every spike.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) { a.alertFn = fn }
}

// WithAuditWebhook forwards audit events to url. header is "Name: value"
// and may be empty.
func WithAuditWebhook(url, header string) Option {
	return func(a *API) {
		a.webhookURL = url
		a.webhookHeader = header
	}
}

// WithSeed fixes the synthetic dataset so answers are reproducible.
func WithSeed(seed uint64) Option {
	return func(a *API) { a.seed = seed }
}

// WithTokenTTLs overrides the lifetime of temporary and auth tokens.
func WithTokenTTLs(temporary, auth time.Duration) Option {
	return func(a *API) {
		a.tempTokenTTL = temporary
		a.authTokenTTL = auth
	}
}

// WithAuthRateLimit bounds unauthenticated auth requests across all
// clients. perSecond <= 0 disables the limit.
func WithAuthRateLimit(perSecond float64, burst int) Option {
	return func(a *API) { a.authLimiter = newAuthLimiter(perSecond, burst) }
}

// WithConsultaRetention caps the consultation log; 0 keeps everything.
func WithConsultaRetention(n int) Option {
	return func(a *API) { a.consultaRetention = n }
}

// WithSpecURL sets where the docs pages fetch openapi.yaml from. It
// depends on where Router is mounted.
func WithSpecURL(url string) Option {
	return func(a *API) { a.specURL = url }
}

// New creates a new API instance serving users.
func New(users *Directory, opts ...Option) *API {
	a := &API{
		users:             users,
		cedulaLimiter:     newLoginRateLimiter(cedulaPolicy),
		ipLimiter:         newLoginRateLimiter(ipPolicy),
		authLimiter:       newAuthLimiter(20, 40),
		tempTokenTTL:      defaultTempTokenTTL,
		authTokenTTL:      defaultAuthTokenTTL,
		consultaRetention: defaultConsultaRetention,
		specURL:           "/api/openapi.yaml",
		seed:              1,
		stopCh:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore(0)
	}
	if a.repo == nil {
		a.repo = memory.NewRepository()
	}
	a.data = newDataset(a.seed)
	a.audit = newAuditLogger(a.logger)
	if a.alertFn != nil {
		a.audit.metrics = newMetricsCollector(a.alertFn)
	}
	if a.webhookURL != "" {
		a.audit.webhook = newAuditWebhook(a.webhookURL, a.webhookHeader)
	}
	go a.sweepLoop()
	return a
}

// Close stops background work and flushes the audit webhook.
func (a *API) Close() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
		a.audit.close()
	})
}

func (a *API) sweepLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.cedulaLimiter.sweep()
			a.ipLimiter.sweep()
		case <-a.stopCh:
			return
		}
	}
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: a.specURL,
		Path:    "api/docs",
	}, nil))
	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: a.specURL,
		Path:    "api/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)

		r.Route("/auth", func(r chi.Router) {
			r.With(a.throttle).Post("/validate-cedula", a.ValidateCedula)
			r.With(a.throttle).Post("/validate-temp-password", a.ValidateTemporaryPassword)
			r.With(a.throttle).Post("/login", a.Login)
			r.With(a.throttle, a.requireGrant(GrantTemporary)).Post("/change-password", a.ChangePassword)
			r.With(a.requireGrant(GrantAuth)).Post("/logout", a.Logout)
			r.With(a.requireGrant(GrantAuth)).Get("/verify-token", a.VerifyToken)
		})

		r.Route("/consulta", func(r chi.Router) {
			r.Get("/informacion/panel", a.Panel)
			r.Group(func(r chi.Router) {
				r.Use(a.requireGrant(GrantAuth))
				r.Post("/tiempos", a.ConsultaTiempos)
				r.Post("/tiempos/medidorSac", a.ConsultaMedidorSac)
				r.Post("/tiempos/Cl", a.ConsultaTiemposCliente)
			})
		})
	})

	return r
}
