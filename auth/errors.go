package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a submission arrives while another one is
	// still waiting on the server.
	ErrBusy = errors.New("a request is already in progress")
	// ErrStale is returned when a response arrives after the flow was reset,
	// stepped back or closed. The response is discarded.
	ErrStale = errors.New("response discarded: flow moved on")
	// ErrInvalidStep is returned when a submission does not belong to the
	// current step.
	ErrInvalidStep = errors.New("operation not valid in the current step")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("flow closed")
)

// ErrorKind classifies a FlowError.
type ErrorKind int

const (
	// KindValidation is a local input error. No request was made.
	KindValidation ErrorKind = iota
	// KindRejected is a request the server refused; the message is the
	// server's.
	KindRejected
	// KindTransport is a network or response-format failure.
	KindTransport
	// KindStorage is a failure to persist the session after the server
	// granted it.
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindTransport:
		return "transport"
	case KindStorage:
		return "storage"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Messages shown for failures that carry no server wording.
const (
	MsgConnection     = "connection error, please try again"
	MsgRejected       = "request rejected by the server"
	MsgStorage        = "could not save the session locally"
	MsgCedulaRequired = "enter your cedula"
	MsgTempRequired   = "enter the temporary password"
	MsgPassRequired   = "enter your password"
	MsgFieldsRequired = "fill in both password fields"
	MsgMismatch       = "passwords do not match"
)

// FlowError is the user-facing error attached to the current step. A
// FlowError never moves the flow to another step.
type FlowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FlowError) Error() string { return e.Message }

func (e *FlowError) Unwrap() error { return e.Err }

func validationError(msg string, err error) *FlowError {
	return &FlowError{Kind: KindValidation, Message: msg, Err: err}
}
