// Package login submits credentials to the backend and maps the outcome onto
// the session, the router and the notification surface.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/notify"
	"github.com/aihelper/aihelper-cli/internal/router"
	"github.com/aihelper/aihelper-cli/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	MsgMissingCredentials = "Please enter both username and password."
	MsgNotConfigured      = "Backend URL is not configured. Please set BACKEND_URL environment variable."
	msgDefaultSuccess     = "Login successful."
	msgInvalidCredentials = "Invalid credentials"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInFlight           = errors.New("a login is already in flight")
)

type Credentials struct {
	Username string
	Password string
}

// Authenticator is the backend login call.
type Authenticator interface {
	Configured() bool
	Address() string
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
}

// Result is the settled outcome of one attempt. Message is what was shown.
type Result struct {
	OK      bool
	Message string
	User    *session.User
	Err     error
}

type Flow struct {
	backend Authenticator
	store   *session.Store
	notes   notify.Notifier
	nav     router.Navigator
	log     *zap.Logger
	slot    *semaphore.Weighted
}

func New(backend Authenticator, store *session.Store, notes notify.Notifier, nav router.Navigator, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{
		backend: backend,
		store:   store,
		notes:   notes,
		nav:     nav,
		log:     log,
		slot:    semaphore.NewWeighted(1),
	}
}

// Submitting reports whether an attempt is in flight.
func (f *Flow) Submitting() bool {
	if !f.slot.TryAcquire(1) {
		return true
	}
	f.slot.Release(1)
	return false
}

// Start validates c and claims the single submission slot. Validation and
// configuration errors are notified here. On success the caller must follow
// with Finish.
func (f *Flow) Start(c Credentials) error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		f.show(MsgMissingCredentials)
		return ErrMissingCredentials
	}
	if f.backend == nil || !f.backend.Configured() {
		f.show(MsgNotConfigured)
		return api.ErrNotConfigured
	}
	if !f.slot.TryAcquire(1) {
		return ErrInFlight
	}
	return nil
}

// Finish performs the login call and releases the slot when it settles.
func (f *Flow) Finish(ctx context.Context, c Credentials) Result {
	defer f.slot.Release(1)

	username := c.Username
	resp, err := f.backend.Login(ctx, username, c.Password)
	if err != nil {
		f.log.Warn("login failed",
			zap.String("module", "login"),
			zap.String("username", username),
			zap.Error(err))
		msg := f.failureMessage(err)
		f.show(msg)
		return Result{Message: msg, Err: err}
	}

	msg := strings.TrimSpace(resp.Message)
	if msg == "" {
		msg = msgDefaultSuccess
	}
	user := &session.User{
		ID:          username,
		DisplayName: username,
		Email:       username + "@example.com",
	}
	f.show(msg)
	if f.store != nil {
		f.store.Set(user)
	}
	if f.nav != nil {
		f.nav.Push(router.RouteHome)
	}
	f.log.Info("login succeeded", zap.String("module", "login"), zap.String("username", username))
	return Result{OK: true, Message: msg, User: user}
}

// Submit is Start followed by Finish.
func (f *Flow) Submit(ctx context.Context, c Credentials) Result {
	if err := f.Start(c); err != nil {
		msg := err.Error()
		switch {
		case errors.Is(err, ErrMissingCredentials):
			msg = MsgMissingCredentials
		case errors.Is(err, api.ErrNotConfigured):
			msg = MsgNotConfigured
		}
		return Result{Message: msg, Err: err}
	}
	return f.Finish(ctx, c)
}

func (f *Flow) failureMessage(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		detail := strings.TrimSpace(se.Detail)
		if detail == "" {
			detail = msgInvalidCredentials
		}
		return "Login failed: " + detail
	}
	return fmt.Sprintf("Network error during login: %v. Is the backend running at %s?", err, f.backend.Address())
}

func (f *Flow) show(msg string) {
	if f.notes != nil {
		f.notes.Show(msg)
	}
}
