// Package session owns the client's belief about who is signed in.
//
// Store is the only writer of the session state. Its operations never hold
// the lock across a network call, so overlapping operations resolve
// last-write-wins.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

const (
	defaultLoginError          = "Login failed"
	defaultSignupError         = "Signup failed"
	defaultLogoutError         = "Logout failed"
	defaultPasswordResetError  = "Password reset request failed"
	defaultPasswordUpdateError = "Password update failed"
)

// State is a snapshot of the session.
type State struct {
	User           *model.User
	HasCredentials bool
	IsLoading      bool
	IsInitialized  bool
	LastError      string
}

var _ model.SessionListener = (*Store)(nil)

// Store holds the session state and the operations that mutate it.
type Store struct {
	auth     model.AuthAPI
	logger   *logger.Logger
	restored *Restoration

	mu             sync.RWMutex
	user           *model.User
	hasCredentials bool
	inFlight       int
	initialized    bool
	lastError      string
	listeners      []model.SessionListener
}

// NewStore creates a Store with an unresolved restoration handle.
func NewStore(auth model.AuthAPI, logger *logger.Logger) *Store {
	return &Store{
		auth:     auth,
		logger:   logger,
		restored: NewRestoration(),
	}
}

// Restoration returns the handle resolved by the first Restore call.
func (s *Store) Restoration() *Restoration {
	return s.restored
}

// Subscribe registers l to be told when the session ends.
func (s *Store) Subscribe(l model.SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		User:           copyUser(s.user),
		HasCredentials: s.hasCredentials,
		IsLoading:      s.inFlight > 0,
		IsInitialized:  s.initialized,
		LastError:      s.lastError,
	}
}

// User returns the cached identity record, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// HasCredentials reports whether the last credential-bearing operation succeeded.
func (s *Store) HasCredentials() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasCredentials
}

// IsAuthenticated is the permissive check used for display: a cached
// identity counts even if the credential flag has been cleared since.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasCredentials || s.user != nil
}

// Restore recovers a session from the ambient credential. It never fails;
// any error leaves the store unauthenticated. The first call resolves the
// restoration handle.
func (s *Store) Restore(ctx context.Context) {
	s.begin()
	defer s.end()

	s.logger.Debug("Session store: restoring session")

	user, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Debug("Session store: no session to restore", "error", err.Error())
		s.setSession(nil, false)
	} else {
		s.logger.Info("Session store: session restored", "user_id", user.UserID)
		s.setSession(&user, true)
	}

	s.markInitialized()
	s.restored.resolve(err == nil)
}

// Login submits credentials and caches the returned identity.
func (s *Store) Login(ctx context.Context, email, password string) (model.User, error) {
	return s.authenticate(ctx, "login", s.auth.Login, model.Credentials{Email: email, Password: password}, defaultLoginError)
}

// Signup creates an account and caches the returned identity.
func (s *Store) Signup(ctx context.Context, email, password string) (model.User, error) {
	return s.authenticate(ctx, "signup", s.auth.Signup, model.Credentials{Email: email, Password: password}, defaultSignupError)
}

func (s *Store) authenticate(
	ctx context.Context,
	op string,
	call func(context.Context, model.Credentials) (model.AuthResult, error),
	creds model.Credentials,
	fallback string,
) (model.User, error) {
	s.begin()
	defer s.end()

	s.logger.Debug("Session store: authenticating", "operation", op, "email", creds.Email)

	res, err := call(ctx, creds)
	if err != nil {
		s.fail(op, err, fallback)
		return model.User{}, err
	}

	user := res.User()
	s.setSession(&user, true)
	s.setError("")

	s.logger.Info("Session store: authenticated", "operation", op, "user_id", user.UserID)

	return user, nil
}

// Logout asks the backend to end the session. Local state is cleared and
// listeners notified whatever the backend answers; the backend error, if
// any, is returned afterwards.
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	defer s.end()

	err := s.auth.Logout(ctx)

	s.setSession(nil, false)
	s.notify(model.ReasonLogout)

	if err != nil {
		s.fail("logout", err, defaultLogoutError)
		return err
	}

	s.logger.Info("Session store: logged out")
	return nil
}

// FetchCurrentUser looks up the identity with the ambient credential. It
// returns nil on any failure and clears the session instead of failing.
func (s *Store) FetchCurrentUser(ctx context.Context) *model.User {
	s.begin()
	defer s.end()
	defer s.markInitialized()

	user, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Debug("Session store: identity lookup failed", "error", err.Error())
		s.setSession(nil, false)
		return nil
	}

	s.setSession(&user, true)
	return copyUser(&user)
}

// RequestPasswordReset asks the backend to send a reset email.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	s.begin()
	defer s.end()

	msg, err := s.auth.RequestPasswordReset(ctx, email)
	if err != nil {
		s.fail("password reset", err, defaultPasswordResetError)
		return "", err
	}
	return msg, nil
}

// UpdatePassword sets a new password for the current credential.
func (s *Store) UpdatePassword(ctx context.Context, newPassword string) (string, error) {
	s.begin()
	defer s.end()

	msg, err := s.auth.UpdatePassword(ctx, newPassword)
	if err != nil {
		s.fail("password update", err, defaultPasswordUpdateError)
		return "", err
	}
	return msg, nil
}

// ClearError forgets the last error message.
func (s *Store) ClearError() {
	s.setError("")
}

// SessionEnded is called by the HTTP client when a refresh fails. The
// session is cleared and the signal forwarded to the store's listeners.
func (s *Store) SessionEnded(reason model.SessionEndReason) {
	s.logger.Info("Session store: session ended by transport", "reason", string(reason))
	s.setSession(nil, false)
	s.notify(reason)
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *Store) setSession(user *model.User, hasCredentials bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = copyUser(user)
	s.hasCredentials = hasCredentials
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *Store) markInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

func (s *Store) fail(op string, err error, fallback string) {
	msg := ErrorMessage(err, fallback)
	s.setError(msg)
	s.logger.Warn("Session store: operation failed",
		"operation", op,
		"message", msg,
		"error", err.Error())
}

func (s *Store) notify(reason model.SessionEndReason) {
	s.mu.RLock()
	listeners := make([]model.SessionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.SessionEnded(reason)
	}
}

// ErrorMessage picks the text shown to the user for err: the server detail,
// then the transport error, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
