package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectAlerts() (*metricsCollector, func() []AlertEvent) {
	var mu sync.Mutex
	var alerts []AlertEvent
	c := newMetricsCollector(func(e AlertEvent) {
		mu.Lock()
		alerts = append(alerts, e)
		mu.Unlock()
	})
	return c, func() []AlertEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]AlertEvent(nil), alerts...)
	}
}

func TestLoginFailureSpikeAlert(t *testing.T) {
	collector, alerts := collectAlerts()
	collector.loginFailures.threshold = 5

	for i := 0; i < 4; i++ {
		collector.recordEvent(AuditLoginFailure)
	}
	assert.Empty(t, alerts(), "no alert below threshold")

	collector.recordEvent(AuditLoginFailure)
	got := alerts()
	require.Len(t, got, 1)
	assert.Equal(t, AlertLoginFailureSpike, got[0].Type)
	assert.Equal(t, 5, got[0].Count)

	// The window resets after an alert.
	collector.recordEvent(AuditLoginFailure)
	assert.Len(t, alerts(), 1)
}

func TestConsultaSpikeAlert(t *testing.T) {
	collector, alerts := collectAlerts()
	collector.consultas.threshold = 3

	collector.recordEvent(AuditConsulta)
	collector.recordEvent(AuditConsulta)
	collector.recordEvent(AuditLoginSuccess)
	assert.Empty(t, alerts())

	collector.recordEvent(AuditConsulta)
	got := alerts()
	require.Len(t, got, 1)
	assert.Equal(t, AlertConsultaSpike, got[0].Type)
}

func TestNilCollectorIgnoresEvents(t *testing.T) {
	var c *metricsCollector
	c.recordEvent(AuditLoginFailure)
	newMetricsCollector(nil).recordEvent(AuditLoginFailure)
}

func TestTrimWindow(t *testing.T) {
	now := time.Now()
	times := []time.Time{now.Add(-3 * time.Minute), now.Add(-2 * time.Minute), now.Add(-10 * time.Second), now}
	trimmed := trimWindow(times, now, time.Minute)
	assert.Len(t, trimmed, 2)
	assert.Equal(t, now, trimmed[1])
}

func TestAPIRaisesLoginFailureAlert(t *testing.T) {
	var mu sync.Mutex
	var got []AlertEvent
	a := New(testDirectory(t, UserSpec{Cedula: "1", Name: "A", Password: "Clave2026"}),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithAlertFunc(func(e AlertEvent) {
			mu.Lock()
			got = append(got, e)
			mu.Unlock()
		}),
	)
	t.Cleanup(a.Close)
	a.audit.metrics.loginFailures.threshold = 3
	router := a.Router()

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"cedula":"1","password":"nope"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, AlertLoginFailureSpike, got[0].Type)
}
