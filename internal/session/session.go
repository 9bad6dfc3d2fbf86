// Package session signs users in against the helpdesk API and keeps the
// resulting token and profile for later invocations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/models"
	"github.com/afterdarksys/helpdesk/internal/pkg/validation"
)

const (
	msgSessionExpired = "Session expired or unauthorized. Please log in again."
	msgNotSignedIn    = "Not signed in."
)

// State is the signed-in session
type State struct {
	Token     string         `json:"token"`
	Profile   models.Profile `json:"profile"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// Role returns the resolved role of the session
func (s *State) Role() models.Role {
	return s.Profile.Role
}

// Username returns the signed-in username
func (s *State) Username() string {
	return s.Profile.Username
}

// Expired returns true once the access token is past its expiry
func (s *State) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// API is the part of the helpdesk API the session needs
type API interface {
	Token(ctx context.Context, creds models.Credentials) (*apiclient.TokenPair, error)
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	Register(ctx context.Context, in models.RegisterInput) error
	PasswordReset(ctx context.Context, email string) (string, error)
}

// Manager owns the session lifecycle: restore, login, logout
type Manager struct {
	api      API
	store    Store
	resolver authz.Resolver
	logger   *zap.Logger
	validate *validation.Validator
	now      func() time.Time

	mu    sync.RWMutex
	state *State
}

// NewManager creates a manager persisting to store
func NewManager(api API, store Store, resolver authz.Resolver, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:      api,
		store:    store,
		resolver: resolver,
		logger:   logger,
		validate: validation.New(),
		now:      time.Now,
	}
}

// Restore loads the stored session. A missing session is not an error; an
// expired one is discarded and reported as session expiry.
func (m *Manager) Restore(ctx context.Context) error {
	st, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		m.set(nil)
		return nil
	}
	if err != nil {
		return err
	}

	if st.Expired(m.now()) {
		m.logger.Debug("Stored session expired", zap.String("username", st.Username()), zap.Time("expires_at", st.ExpiresAt))
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("Failed to clear expired session", zap.Error(err))
		}
		m.set(nil)
		return apiclient.NewError(apiclient.KindSessionExpired, msgSessionExpired)
	}
	m.set(st)
	return nil
}

// Login exchanges credentials for a token, loads the caller's profile,
// resolves its role and persists the result
func (m *Manager) Login(ctx context.Context, username, password string) (*State, error) {
	creds := models.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := m.validate.Struct(creds); err != nil {
		return nil, apiclient.ValidationError(err, "Username and password are required.")
	}

	pair, err := m.api.Token(ctx, creds)
	if err != nil {
		return nil, err
	}

	cl := readClaims(pair.Access)
	users, err := m.api.ListUsers(ctx, pair.Access)
	if err != nil {
		return nil, err
	}
	user, ok := models.FindUser(users, creds.Username)
	if !ok {
		return nil, apiclient.NewError(apiclient.KindNotFound, "No profile found for %q.", creds.Username)
	}

	claim := cl.Role
	if claim == "" {
		claim = user.Role
	}
	role := authz.Resolve(authz.ResolveInput{
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
		Claim:       claim,
		Legacy:      m.resolver.Legacy,
	})

	st := &State{
		Token:   pair.Access,
		Profile: user.ToProfile(role),
	}
	if cl.ExpiresAt != nil {
		st.ExpiresAt = cl.ExpiresAt.Time.UTC()
	}
	if err := m.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.set(st)

	m.logger.Info("Signed in",
		zap.String("username", st.Username()),
		zap.String("role", string(role)),
	)
	return st, nil
}

// Logout forgets the token and profile, locally and in the store
func (m *Manager) Logout(ctx context.Context) error {
	m.set(nil)
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Expire tears the session down after the server rejected its token
func (m *Manager) Expire(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		m.logger.Warn("Failed to clear session", zap.Error(err))
	}
}

// Current returns a copy of the signed-in session
func (m *Manager) Current() (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, false
	}
	st := *m.state
	return &st, true
}

// Require returns the signed-in session or a session-expired error
func (m *Manager) Require() (*State, error) {
	st, ok := m.Current()
	if !ok {
		return nil, apiclient.NewError(apiclient.KindSessionExpired, msgNotSignedIn)
	}
	if st.Expired(m.now()) {
		return nil, apiclient.NewError(apiclient.KindSessionExpired, msgSessionExpired)
	}
	return st, nil
}

// Token returns the bearer token of the signed-in session
func (m *Manager) Token() (string, error) {
	st, err := m.Require()
	if err != nil {
		return "", err
	}
	return st.Token, nil
}

// Register creates an account
func (m *Manager) Register(ctx context.Context, in models.RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := m.validate.Struct(in); err != nil {
		return apiclient.ValidationError(err, "Please fill in all fields correctly.")
	}
	if err := m.api.Register(ctx, in); err != nil {
		return err
	}
	m.logger.Info("Registered account", zap.String("username", in.Username))
	return nil
}

// ResetPassword asks the server to mail a reset link
func (m *Manager) ResetPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: "Email is required.",
			Fields:  map[string][]string{"email": {"This field is required."}},
		}
	}
	return m.api.PasswordReset(ctx, email)
}

func (m *Manager) set(st *State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
}

// tokenClaims are the access token fields the client reads
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// readClaims decodes the access token without verifying it. The client holds
// no signing key; the server verifies every request.
func readClaims(token string) tokenClaims {
	var cl tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &cl); err != nil {
		return tokenClaims{}
	}
	return cl
}
