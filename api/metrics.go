package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertLoginFailureSpike AlertType = "login_failure_spike"
	AlertConsultaSpike     AlertType = "consulta_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

// slidingWindow counts events inside a trailing time window.
type slidingWindow struct {
	times     []time.Time
	window    time.Duration
	threshold int
}

// add records an event at now and reports the count if it reached the
// threshold, resetting the window so one spike raises one alert.
func (w *slidingWindow) add(now time.Time) (int, bool) {
	w.times = trimWindow(append(w.times, now), now, w.window)
	if len(w.times) < w.threshold {
		return 0, false
	}
	n := len(w.times)
	w.times = w.times[:0]
	return n, true
}

// metricsCollector tracks sliding window counters for anomaly detection.
type metricsCollector struct {
	mu            sync.Mutex
	loginFailures slidingWindow
	consultas     slidingWindow
	alertFn       AlertFunc
}

const (
	defaultLoginFailureWindow    = 1 * time.Minute
	defaultLoginFailureThreshold = 50
	defaultConsultaWindow        = 1 * time.Minute
	defaultConsultaThreshold     = 120
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		loginFailures: slidingWindow{window: defaultLoginFailureWindow, threshold: defaultLoginFailureThreshold},
		consultas:     slidingWindow{window: defaultConsultaWindow, threshold: defaultConsultaThreshold},
		alertFn:       alertFn,
	}
}

// recordEvent inspects an audit event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event AuditEvent) {
	if m == nil || m.alertFn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	switch event {
	case AuditLoginFailure:
		if n, hit := m.loginFailures.add(now); hit {
			m.alertFn(AlertEvent{
				Type:      AlertLoginFailureSpike,
				Message:   "login failure rate exceeds threshold",
				Count:     n,
				Threshold: m.loginFailures.threshold,
				Timestamp: now,
			})
		}
	case AuditConsulta:
		if n, hit := m.consultas.add(now); hit {
			m.alertFn(AlertEvent{
				Type:      AlertConsultaSpike,
				Message:   "consultation rate exceeds threshold",
				Count:     n,
				Threshold: m.consultas.threshold,
				Timestamp: now,
			})
		}
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
