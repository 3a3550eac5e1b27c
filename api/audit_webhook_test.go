package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookSink struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	status   func(n int) int
	calls    atomic.Int32
}

func newWebhookSink(t *testing.T, status func(n int) int) (*webhookSink, *httptest.Server) {
	t.Helper()
	sink := &webhookSink{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(sink.calls.Add(1))
		body, _ := io.ReadAll(r.Body)
		sink.mu.Lock()
		sink.requests = append(sink.requests, r)
		sink.bodies = append(sink.bodies, body)
		sink.mu.Unlock()
		code := http.StatusOK
		if sink.status != nil {
			code = sink.status(n)
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return sink, srv
}

func fastWebhook(url, header string) *auditWebhook {
	wh := newAuditWebhook(url, header)
	wh.retryDelay = time.Millisecond
	return wh
}

func TestWebhookDelivery(t *testing.T) {
	sink, srv := newWebhookSink(t, nil)

	wh := fastWebhook(srv.URL, "Authorization: Bearer hook-secret")
	wh.enqueue(webhookEvent{
		Event:      string(AuditLoginSuccess),
		Cedula:     "12345678",
		RemoteAddr: "10.0.0.1:5555",
		Timestamp:  "2026-06-15T12:00:00Z",
		Attrs:      map[string]string{"cargo": "PROFESIONAL"},
	})
	wh.close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.bodies, 1)
	req := sink.requests[0]
	assert.Equal(t, "Bearer hook-secret", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, webhookUserAgent, req.Header.Get("User-Agent"))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(sink.bodies[0], &parsed))
	assert.Equal(t, "login_success", parsed["event"])
	assert.Equal(t, "12345678", parsed["cedula"])
	assert.Equal(t, "10.0.0.1:5555", parsed["remote_addr"])
	assert.Equal(t, "2026-06-15T12:00:00Z", parsed["timestamp"])
	attrs, ok := parsed["attrs"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PROFESIONAL", attrs["cargo"])
}

func TestWebhookRetriesOnServerError(t *testing.T) {
	sink, srv := newWebhookSink(t, func(n int) int {
		if n == 1 {
			return http.StatusInternalServerError
		}
		return http.StatusOK
	})

	wh := fastWebhook(srv.URL, "")
	wh.enqueue(webhookEvent{Event: "logout", Timestamp: "2026-01-01T00:00:00Z"})
	wh.close()

	assert.Equal(t, int32(2), sink.calls.Load())
}

func TestWebhookGivesUpAfterSecondServerError(t *testing.T) {
	sink, srv := newWebhookSink(t, func(int) int { return http.StatusBadGateway })

	wh := fastWebhook(srv.URL, "")
	wh.enqueue(webhookEvent{Event: "logout", Timestamp: "2026-01-01T00:00:00Z"})
	wh.close()

	assert.Equal(t, int32(2), sink.calls.Load())
}

func TestWebhookNoRetryOnClientError(t *testing.T) {
	sink, srv := newWebhookSink(t, func(int) int { return http.StatusBadRequest })

	wh := fastWebhook(srv.URL, "")
	wh.enqueue(webhookEvent{Event: "logout", Timestamp: "2026-01-01T00:00:00Z"})
	wh.close()

	assert.Equal(t, int32(1), sink.calls.Load())
}

func TestWebhookMalformedHeaderIgnored(t *testing.T) {
	wh := fastWebhook("http://127.0.0.1:0", "no-colon-here")
	defer wh.close()
	assert.Empty(t, wh.header)
}

func TestWebhookQueueFullNonBlocking(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	wh := &auditWebhook{
		url:    srv.URL,
		client: &http.Client{Timeout: 100 * time.Millisecond},
		logger: slog.New(slog.DiscardHandler),
		events: make(chan webhookEvent, 2),
	}
	wh.wg.Add(1)
	go wh.loop()

	for i := 0; i < 10; i++ {
		wh.enqueue(webhookEvent{Event: "flood", Timestamp: "2026-01-01T00:00:00Z"})
	}
	close(wh.events)
}

func TestWebhookCloseDrainsQueue(t *testing.T) {
	sink, srv := newWebhookSink(t, nil)

	wh := fastWebhook(srv.URL, "")
	for i := 0; i < 5; i++ {
		wh.enqueue(webhookEvent{Event: "consulta", Timestamp: "2026-01-01T00:00:00Z"})
	}
	wh.close()

	assert.Equal(t, int32(5), sink.calls.Load())
}

func TestAuditLoggerForwardsToWebhook(t *testing.T) {
	sink, srv := newWebhookSink(t, nil)

	al := newAuditLogger(slog.New(slog.DiscardHandler))
	al.webhook = fastWebhook(srv.URL, "")

	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.Header.Set("X-Request-ID", "req-1")
	al.logEvent(AuditLoginFailure, r, "40404040", slog.String("reason", "bad password"))
	al.close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.bodies, 1)
	var evt webhookEvent
	require.NoError(t, json.Unmarshal(sink.bodies[0], &evt))
	assert.Equal(t, "login_failure", evt.Event)
	assert.Equal(t, "40404040", evt.Cedula)
	assert.Equal(t, "bad password", evt.Attrs["reason"])
}
