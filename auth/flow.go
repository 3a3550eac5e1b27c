// Package auth implements the multi-step login: cedula, then either the
// normal password or the temporary password followed by a mandatory
// password change. Each step has its own transition method and the flow
// only reaches StepAuthenticated once the server has issued a token and the
// session has been committed.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/internal/util"
	"github.com/consorcioci/viernes/session"
)

// Step is a position in the login flow.
type Step int

const (
	StepCedula Step = iota
	StepTemporaryPassword
	StepNormalPassword
	StepChangePassword
	StepAuthenticated
)

func (s Step) String() string {
	switch s {
	case StepCedula:
		return "CEDULA"
	case StepTemporaryPassword:
		return "TEMP_PASSWORD"
	case StepNormalPassword:
		return "NORMAL_PASSWORD"
	case StepChangePassword:
		return "CHANGE_PASSWORD"
	case StepAuthenticated:
		return "AUTHENTICATED"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// State is a snapshot of the flow.
type State struct {
	Step   Step
	Cedula string
	// Name is the display name returned by cedula validation, if any.
	Name string
	Busy bool
	Err  *FlowError
}

// MsgTemporaryTokenMissing is reported when the change-password step has no
// temporary token to present.
const MsgTemporaryTokenMissing = "temporary session expired, go back and enter the temporary password again"

// Flow is one login attempt. Methods are safe for concurrent use; at most
// one request is in flight at a time.
type Flow struct {
	api    API
	store  SessionStore
	logger *slog.Logger

	mu      sync.Mutex
	step    Step
	cedula  string
	info    *client.CedulaInfo
	lastErr *FlowError
	busy    bool
	gen     uint64
	closed  bool
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger for the flow.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFlow returns a flow positioned at StepCedula.
func NewFlow(api API, store SessionStore, opts ...Option) *Flow {
	f := &Flow{
		api:    api,
		store:  store,
		logger: slog.Default(),
		step:   StepCedula,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "auth")
	return f
}

// State returns a snapshot of the flow.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := State{Step: f.step, Cedula: f.cedula, Busy: f.busy, Err: f.lastErr}
	if f.info != nil {
		s.Name = f.info.Name
	}
	return s
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// SubmitCedula validates cedula with the server and moves to the password
// step the server asks for.
func (f *Flow) SubmitCedula(ctx context.Context, cedula string) error {
	cedula = strings.TrimSpace(cedula)

	f.mu.Lock()
	if err := f.check(StepCedula); err != nil {
		f.mu.Unlock()
		return err
	}
	if cedula == "" {
		defer f.mu.Unlock()
		return f.invalid(MsgCedulaRequired, nil)
	}
	gen := f.acquire()
	f.cedula = cedula
	f.mu.Unlock()

	info, err := f.api.ValidateCedula(ctx, cedula)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.release(gen) {
		return ErrStale
	}
	if err != nil {
		return f.remoteFailure("validate cedula", err)
	}
	f.info = info
	if info.NextStep == client.NextStepNormalLogin {
		f.step = StepNormalPassword
	} else {
		f.step = StepTemporaryPassword
	}
	f.logger.Debug("cedula accepted", "cedula", cedula, "next", f.step)
	return nil
}

// SubmitTemporaryPassword exchanges the temporary password for a temporary
// token and moves to StepChangePassword. password is wiped before return.
func (f *Flow) SubmitTemporaryPassword(ctx context.Context, password []byte) error {
	defer util.WipeBytes(password)
	pw := string(bytes.TrimSpace(password))

	f.mu.Lock()
	if err := f.check(StepTemporaryPassword); err != nil {
		f.mu.Unlock()
		return err
	}
	if pw == "" {
		defer f.mu.Unlock()
		return f.invalid(MsgTempRequired, nil)
	}
	gen := f.acquire()
	cedula := f.cedula
	f.mu.Unlock()

	grant, err := f.api.ValidateTemporaryPassword(ctx, cedula, pw)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.release(gen) {
		return ErrStale
	}
	if err != nil {
		return f.remoteFailure("validate temporary password", err)
	}
	if err := f.store.SetTemporaryToken(grant.TemporaryToken); err != nil {
		return f.storageFailure(err)
	}
	f.step = StepChangePassword
	return nil
}

// SubmitNormalPassword logs in with the definitive password and commits the
// session. password is wiped before return.
func (f *Flow) SubmitNormalPassword(ctx context.Context, password []byte) error {
	defer util.WipeBytes(password)
	pw := string(bytes.TrimSpace(password))

	f.mu.Lock()
	if err := f.check(StepNormalPassword); err != nil {
		f.mu.Unlock()
		return err
	}
	if pw == "" {
		defer f.mu.Unlock()
		return f.invalid(MsgPassRequired, nil)
	}
	gen := f.acquire()
	cedula := f.cedula
	f.mu.Unlock()

	grant, err := f.api.Login(ctx, cedula, pw)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.release(gen) {
		return ErrStale
	}
	if err != nil {
		return f.remoteFailure("login", err)
	}
	return f.commit(grant)
}

// SubmitChangePassword sets the definitive password. Local checks run in
// order (both fields present, fields equal, password policy) and the first
// failure is reported without contacting the server. Both buffers are wiped
// before return.
func (f *Flow) SubmitChangePassword(ctx context.Context, newPassword, confirmPassword []byte) error {
	defer util.WipeBytes(newPassword)
	defer util.WipeBytes(confirmPassword)

	f.mu.Lock()
	if err := f.check(StepChangePassword); err != nil {
		f.mu.Unlock()
		return err
	}
	if len(newPassword) == 0 || len(confirmPassword) == 0 {
		defer f.mu.Unlock()
		return f.invalid(MsgFieldsRequired, nil)
	}
	if !bytes.Equal(newPassword, confirmPassword) {
		defer f.mu.Unlock()
		return f.invalid(MsgMismatch, nil)
	}
	pw := string(newPassword)
	if errs := ValidatePassword(pw); len(errs) > 0 {
		defer f.mu.Unlock()
		return f.invalid(errs[0].Error(), errs[0])
	}
	tmp, ok := f.store.TemporaryToken()
	if !ok {
		defer f.mu.Unlock()
		return f.invalid(MsgTemporaryTokenMissing, nil)
	}
	gen := f.acquire()
	cedula := f.cedula
	f.mu.Unlock()

	grant, err := f.api.ChangePassword(ctx, tmp, cedula, pw)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.release(gen) {
		return ErrStale
	}
	if err != nil {
		return f.remoteFailure("change password", err)
	}
	return f.commit(grant)
}

// Back returns to the previous step. From a password step it goes back to
// StepCedula and forgets the validation answer; from StepChangePassword it
// goes back to StepTemporaryPassword and discards the temporary token. Back
// never touches a committed session. A request in flight becomes stale.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	switch f.step {
	case StepTemporaryPassword, StepNormalPassword:
		f.step = StepCedula
		f.info = nil
	case StepChangePassword:
		f.step = StepTemporaryPassword
		f.dropTemporaryToken()
	default:
		return ErrInvalidStep
	}
	f.invalidate()
	return nil
}

// Reset starts the flow over at StepCedula. A committed session is left in
// place.
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.step == StepChangePassword {
		f.dropTemporaryToken()
	}
	f.step = StepCedula
	f.cedula = ""
	f.info = nil
	f.invalidate()
	return nil
}

// Close ends the flow. An unfinished password change loses its temporary
// token. Responses still in flight are discarded and every later call
// returns ErrClosed.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.step == StepChangePassword {
		f.dropTemporaryToken()
	}
	f.closed = true
	f.invalidate()
}

// check must be called with mu held.
func (f *Flow) check(step Step) error {
	switch {
	case f.closed:
		return ErrClosed
	case f.busy:
		return ErrBusy
	case f.step != step:
		return ErrInvalidStep
	}
	return nil
}

func (f *Flow) acquire() uint64 {
	f.busy = true
	f.lastErr = nil
	return f.gen
}

// release clears the busy flag unless the flow moved on since gen was
// taken, in which case a newer request may own it.
func (f *Flow) release(gen uint64) bool {
	if gen != f.gen {
		f.logger.Debug("discarding stale response", "step", f.step)
		return false
	}
	f.busy = false
	return true
}

func (f *Flow) invalidate() {
	f.gen++
	f.busy = false
	f.lastErr = nil
}

func (f *Flow) invalid(msg string, err error) *FlowError {
	fe := validationError(msg, err)
	f.lastErr = fe
	return fe
}

func (f *Flow) remoteFailure(op string, err error) *FlowError {
	fe := &FlowError{Kind: KindTransport, Message: MsgConnection, Err: err}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fe.Kind = KindRejected
		fe.Message = apiErr.Message
		if fe.Message == "" {
			fe.Message = MsgRejected
		}
	}
	f.lastErr = fe
	f.logger.Info("login step failed", "op", op, "step", f.step, "cedula", f.cedula,
		"kind", fe.Kind, "error", err)
	return fe
}

func (f *Flow) storageFailure(err error) *FlowError {
	fe := &FlowError{Kind: KindStorage, Message: MsgStorage, Err: err}
	f.lastErr = fe
	f.logger.Error("persisting login state failed", "step", f.step, "cedula", f.cedula, "error", err)
	return fe
}

func (f *Flow) commit(grant *client.AuthGrant) error {
	id := session.Identity{Cedula: grant.Cedula, Name: grant.Name, Cargo: grant.Cargo}
	if id.Cedula == "" {
		id.Cedula = f.cedula
	}
	if err := f.store.Commit(id, grant.AuthToken); err != nil {
		return f.storageFailure(err)
	}
	f.step = StepAuthenticated
	f.logger.Info("login succeeded", "cedula", id.Cedula)
	return nil
}

func (f *Flow) dropTemporaryToken() {
	if err := f.store.ClearTemporaryToken(); err != nil {
		f.logger.Warn("clearing temporary token failed", "error", err)
	}
}
