package client

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

var (
	// ErrUnauthorized matches APIErrors carrying HTTP 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotAuthenticated is returned without a request when an endpoint
	// needing a bearer token is called with none.
	ErrNotAuthenticated = errors.New("not authenticated; log in first")
)

// snippetLen bounds the body excerpt kept from a non-JSON response.
const snippetLen = 120

// APIError is a request the server understood and rejected. Message is the
// server's own wording.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (HTTP %d)", e.StatusCode)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// ResponseError is a response that could not be read as the API's JSON
// envelope: wrong content type or a malformed body.
type ResponseError struct {
	StatusCode  int
	ContentType string
	Snippet     string
	Err         error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed JSON response (%d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("non-JSON response (%d). Detail: %s...", e.StatusCode, e.Snippet)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// TransportError is a failure to complete the HTTP exchange at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRejected reports whether err is a server-side rejection.
func IsRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsTransport reports whether err is a network or response-format failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	var rErr *ResponseError
	return errors.As(err, &tErr) || errors.As(err, &rErr)
}

func snippet(body []byte) string {
	if len(body) <= snippetLen {
		return string(body)
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}
