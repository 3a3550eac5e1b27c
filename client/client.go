// Package client talks to the portal's remote HTTP API: the authentication
// endpoints and the consultation endpoints. It holds no session state; the
// caller passes the bearer token explicitly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/consorcioci/viernes/internal/uuid"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
	userAgent       = "viernes-cli/1.0"
)

// Client is a thin JSON client for the portal API. It is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given
// burst. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://portal.example/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}
	c := &Client{
		base:    u,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c, nil
}

// envelope is the {success, message|error, data} wrapper every endpoint
// answers with.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`

	raw json.RawMessage
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

// do performs r and returns the decoded envelope. Every failure is one of
// *TransportError, *ResponseError or *APIError.
func (c *Client) do(ctx context.Context, r request) (*envelope, error) {
	op := r.method + " " + r.path
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	requestID := uuid.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", requestID, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	c.logger.Debug("request done", "op", op, "request_id", requestID,
		"status", resp.StatusCode, "duration", time.Since(start))

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "application/json") {
		return nil, &ResponseError{StatusCode: resp.StatusCode, ContentType: ct, Snippet: snippet(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ResponseError{StatusCode: resp.StatusCode, ContentType: ct, Snippet: snippet(data), Err: err}
	}
	env.raw = data
	if resp.StatusCode >= http.StatusBadRequest || (env.Success != nil && !*env.Success) {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.message()}
	}
	return &env, nil
}

// decodeData unmarshals raw into out keeping numbers as json.Number, so
// identifiers such as meter numbers are not rendered in float notation.
func decodeData(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return &ResponseError{StatusCode: http.StatusOK, Err: fmt.Errorf("response has no data")}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &ResponseError{StatusCode: http.StatusOK, Snippet: snippet(raw), Err: err}
	}
	return nil
}
