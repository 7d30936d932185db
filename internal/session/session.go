// Package session owns the auth token and current-user identity. All other
// components read the session through the manager; only the manager ever
// mutates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/pkg/docapi"
)

// ErrNotAuthenticated is returned when an operation requires a session and
// none exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrSessionInvalid is returned when a stored token fails validation
// against the identity endpoint (or is locally expired).
var ErrSessionInvalid = errors.New("session invalid, please login again")

// Session is the authenticated state. User is non-nil only while Token is
// non-empty and has been validated against /auth/me.
type Session struct {
	Token string
	User  *docapi.User
}

// Role derives the permission role from the validated identity. An
// unauthenticated session has no role, which every capability check
// denies.
func (s Session) Role() permissions.Role {
	if s.User == nil {
		return ""
	}
	return permissions.Role(s.User.Role)
}

// Manager holds the session, persists the token, and validates it against
// the identity endpoint. The epoch counter increments on every reset so
// late-arriving responses from a previous session can detect they are
// stale and must not repopulate shared state.
type Manager struct {
	store TokenStore
	api   *docapi.Client

	mu      sync.RWMutex
	session Session
	epoch   atomic.Int64
}

// NewManager creates a Manager over the given token store. The API client
// is attached afterwards because it needs the manager as its token source.
func NewManager(store TokenStore) *Manager {
	return &Manager{store: store}
}

// SetClient attaches the API client used for identity calls.
func (m *Manager) SetClient(api *docapi.Client) {
	m.api = api
}

// Token returns the current token; it is the client's TokenSource, so
// every request captures the token at call time.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

// Current returns a copy of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Epoch returns the current session epoch. Callers capture it before a
// network call and compare before installing results.
func (m *Manager) Epoch() int64 {
	return m.epoch.Load()
}

// Restore loads a previously stored token and validates it against the
// identity endpoint. On any validation failure the stored token is
// discarded and ErrSessionInvalid is returned; a pure transport failure
// keeps the stored token but leaves the session unauthenticated.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return ErrNotAuthenticated
	}

	if expired(token) {
		slog.Debug("stored token expired, discarding")
		m.reset(true)
		return ErrSessionInvalid
	}

	return m.validate(ctx, token)
}

// validate sets the token, calls /auth/me, and installs the identity. The
// token is set first so the client's token source picks it up.
func (m *Manager) validate(ctx context.Context, token string) error {
	m.mu.Lock()
	m.session = Session{Token: token}
	m.mu.Unlock()

	user, err := m.api.Me(ctx)
	if err != nil {
		var apiErr *docapi.APIError
		var protoErr *docapi.ProtocolError
		switch {
		case errors.As(err, &apiErr):
			slog.Warn("identity check rejected", "status", apiErr.Status)
			m.reset(true)
			return fmt.Errorf("%w: %s", ErrSessionInvalid, apiErr.Detail)
		case errors.As(err, &protoErr):
			m.reset(true)
			return fmt.Errorf("%w: %s", ErrSessionInvalid, protoErr.Error())
		default:
			// Transport failure: the token may still be good, keep it
			// stored but do not authenticate.
			m.reset(false)
			return fmt.Errorf("validate session: %w", err)
		}
	}

	m.mu.Lock()
	m.session.User = user
	m.mu.Unlock()
	slog.Info("session validated", "email", user.Email, "role", user.Role)
	return nil
}

// Login submits credentials, stores the returned token, and validates it.
// Server error detail is surfaced verbatim; a 2xx response without a token
// is reported as a protocol error distinct from bad credentials.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return m.validate(ctx, token)
}

// Signup registers an account without authenticating.
func (m *Manager) Signup(ctx context.Context, email, password string) (string, error) {
	return m.api.Signup(ctx, email, password)
}

// Logout clears the stored token and in-memory session unconditionally
// and bumps the epoch so no in-flight response can rehydrate stale state.
func (m *Manager) Logout() {
	m.reset(true)
	slog.Info("logged out")
}

// reset clears the in-memory session and bumps the epoch. When clearStore
// is set the persisted token is removed as well.
func (m *Manager) reset(clearStore bool) {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
	m.epoch.Add(1)
	if clearStore {
		if err := m.store.Clear(); err != nil {
			slog.Warn("clear stored token failed", "error", err)
		}
	}
}

// expired peeks at the token's exp claim without verifying the signature.
// Verification is the server's job; this only avoids a doomed round-trip.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT the client understands; let the server decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
