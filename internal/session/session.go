// Package session owns the bearer credential and its lifecycle. The Manager
// is the only component allowed to declare a session invalid.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"peacock/internal/client"
	"peacock/internal/logging"
	"peacock/internal/store"
	"peacock/internal/types"
)

type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Route tells the presentation layer which screen to show.
type Route string

const (
	RouteLogin Route = "login"
	RouteNotes Route = "notes"
)

type Reason string

const (
	ReasonRejected Reason = "credential_rejected"
	ReasonLogout   Reason = "logout"
)

const (
	expiredMessage   = "Session expired. Redirecting to login page..."
	loggedOutMessage = "Logged out successfully"
)

var ErrValidation = errors.New("validation failed")

// Event is emitted once per genuine Authenticated -> Anonymous transition.
type Event struct {
	Reason  Reason
	Message string
	Route   Route
}

// Authenticator is the part of the gateway that issues credentials.
type Authenticator interface {
	Login(ctx context.Context, creds types.Credentials) (string, error)
	Register(ctx context.Context, req types.Registration) (*client.RegisterResponse, error)
}

type Manager struct {
	durable store.CredentialStore
	scoped  store.CredentialStore
	logger  logging.Logger

	mu         sync.Mutex
	state      State
	credential string
	nextID     int
	listeners  map[int]func(Event)
}

type Option func(*Manager)

func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager starts Anonymous. durable survives restarts; scoped is the
// short-lived copy checked first on every load.
func NewManager(durable, scoped store.CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		durable:   durable,
		scoped:    scoped,
		logger:    logging.Nop(),
		state:     Anonymous,
		listeners: map[int]func(Event){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the credential when Authenticated. It never fails.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated || m.credential == "" {
		return "", false
	}
	return m.credential, true
}

// Subscribe registers fn for invalidation events and returns its cancel func.
func (m *Manager) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Restore looks for a persisted credential, session-scoped copy first.
func (m *Manager) Restore(ctx context.Context) Route {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Authenticated {
		return RouteNotes
	}
	if credential, ok := m.load(ctx, m.scoped, "session"); ok {
		m.credential = credential
		m.state = Authenticated
		m.logger.Debug("session_restored", logging.F("source", "session"))
		return RouteNotes
	}
	credential, ok := m.load(ctx, m.durable, "durable")
	if !ok {
		m.logger.Debug("session_absent")
		return RouteLogin
	}
	m.credential = credential
	m.state = Authenticated
	if m.scoped != nil {
		if err := m.scoped.Save(ctx, credential); err != nil {
			m.logger.Warn("session_reseed_failed", logging.Err(err))
		}
	}
	m.logger.Debug("session_restored", logging.F("source", "durable"))
	return RouteNotes
}

// Establish persists credential in both stores and marks the session Authenticated.
func (m *Manager) Establish(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("%w: credential is required", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.durable != nil {
		if err := m.durable.Save(ctx, credential); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	}
	if m.scoped != nil {
		if err := m.scoped.Save(ctx, credential); err != nil {
			if m.durable != nil {
				_ = m.durable.Clear(ctx)
			}
			return fmt.Errorf("persist session credential: %w", err)
		}
	}
	m.credential = credential
	m.state = Authenticated
	m.logger.Info("session_established", logging.F("credential", logging.Redact(credential)))
	return nil
}

// Invalidate clears both stores and emits one Event. It is a no-op unless
// the session is Authenticated, and reports whether it transitioned.
func (m *Manager) Invalidate(ctx context.Context, reason Reason) bool {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return false
	}
	m.state = Expired
	m.credential = ""
	// The transition already happened in memory; a cancelled caller must not
	// leave a persisted copy behind for the next Restore.
	m.clearStores(context.WithoutCancel(ctx))
	m.state = Anonymous
	listeners := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	event := Event{Reason: reason, Message: messageFor(reason), Route: RouteLogin}
	m.logger.Info("session_invalidated", logging.F("reason", string(reason)))
	for _, fn := range listeners {
		fn(event)
	}
	return true
}

// HandleAuthFailure is the gateway's auth-error subscriber. A rejection of a
// credential that is no longer current (a late reply from before a fresh
// login) is ignored.
func (m *Manager) HandleAuthFailure(ctx context.Context, credential string, err *client.Error) {
	m.mu.Lock()
	stale := credential != "" && m.credential != "" && credential != m.credential
	m.mu.Unlock()
	if stale {
		m.logger.Debug("session_stale_rejection_ignored")
		return
	}
	m.Invalidate(ctx, ReasonRejected)
}

func (m *Manager) Login(ctx context.Context, auth Authenticator, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	credential, err := auth.Login(ctx, types.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	return m.Establish(ctx, credential)
}

// Register creates an account; it never establishes a session.
func (m *Manager) Register(ctx context.Context, auth Authenticator, req types.Registration) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || strings.TrimSpace(req.Password) == "" {
		return fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	_, err := auth.Register(ctx, req)
	return err
}

// Logout is a user-initiated invalidation.
func (m *Manager) Logout(ctx context.Context) bool {
	return m.Invalidate(ctx, ReasonLogout)
}

func (m *Manager) load(ctx context.Context, s store.CredentialStore, source string) (string, bool) {
	if s == nil {
		return "", false
	}
	credential, ok, err := s.Load(ctx)
	if err != nil {
		m.logger.Warn("session_load_failed", logging.F("source", source), logging.Err(err))
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, ok && credential != ""
}

func (m *Manager) clearStores(ctx context.Context) {
	for _, s := range []store.CredentialStore{m.scoped, m.durable} {
		if s == nil {
			continue
		}
		if err := s.Clear(ctx); err != nil {
			m.logger.Warn("session_clear_failed", logging.Err(err))
		}
	}
}

func messageFor(reason Reason) string {
	if reason == ReasonLogout {
		return loggedOutMessage
	}
	return expiredMessage
}
