package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	webhookQueueSize  = 1024
	webhookRetryDelay = time.Second
	webhookUserAgent  = "viernes-audit-webhook/1.0"
)

// webhookEvent is the JSON payload POSTed to the external endpoint.
type webhookEvent struct {
	Event      string            `json:"event"`
	Cedula     string            `json:"cedula,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Timestamp  string            `json:"timestamp"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}

// auditWebhook forwards audit events to an external collector (a SIEM or a
// chat hook). enqueue never blocks; when the queue is full the event is
// dropped.
type auditWebhook struct {
	url        string
	header     string
	value      string
	client     *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
	events     chan webhookEvent
	wg         sync.WaitGroup
}

// newAuditWebhook starts a dispatcher posting to url. authHeader has the
// form "Name: value" and may be empty.
func newAuditWebhook(url, authHeader string) *auditWebhook {
	w := &auditWebhook{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		retryDelay: webhookRetryDelay,
		logger:     slog.Default().With("component", "audit-webhook"),
		events:     make(chan webhookEvent, webhookQueueSize),
	}
	if name, value, ok := strings.Cut(authHeader, ":"); ok {
		w.header, w.value = strings.TrimSpace(name), strings.TrimSpace(value)
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *auditWebhook) enqueue(evt webhookEvent) {
	select {
	case w.events <- evt:
	default:
		w.logger.Warn("queue full, dropping event", "event", evt.Event)
	}
}

// close drains the queue and stops the dispatcher.
func (w *auditWebhook) close() {
	close(w.events)
	w.wg.Wait()
}

func (w *auditWebhook) loop() {
	defer w.wg.Done()
	for evt := range w.events {
		w.send(evt)
	}
}

// send POSTs evt, retrying once on a network error or a 5xx.
func (w *auditWebhook) send(evt webhookEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		w.logger.Warn("marshal failed", "error", err)
		return
	}

	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			time.Sleep(w.retryDelay)
		}
		retry, err := w.post(body)
		if err == nil {
			return
		}
		w.logger.Warn("delivery failed", "event", evt.Event, "attempt", attempt, "error", err)
		if !retry {
			return
		}
	}
}

func (w *auditWebhook) post(body []byte) (retry bool, err error) {
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)
	if w.header != "" {
		req.Header.Set(w.header, w.value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return true, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500:
		return true, &webhookStatusError{status: resp.StatusCode}
	default:
		return false, &webhookStatusError{status: resp.StatusCode}
	}
}

type webhookStatusError struct{ status int }

func (e *webhookStatusError) Error() string {
	return "unexpected status " + http.StatusText(e.status)
}
