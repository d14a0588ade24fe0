package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Session is an issued credential pair with its owner.
type Session struct {
	Account      model.Account
	AccessToken  string
	RefreshToken string
}

// Auth implements the dev backend account operations.
type Auth struct {
	accounts model.AccountStore
	tokens   *TokenService
	logger   *logger.Logger
	cost     int
}

func NewAuth(accounts model.AccountStore, tokens *TokenService, logger *logger.Logger) *Auth {
	return &Auth{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Signup creates an account and issues its first credential pair.
func (a *Auth) Signup(ctx context.Context, email, password string) (Session, error) {
	a.logger.Debug("Auth service: starting signup", "email", email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account, err := a.accounts.Create(ctx, model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			a.logger.Info("Auth service: email already registered", "email", email)
			return Session{}, err
		}
		return Session{}, fmt.Errorf("failed to create account: %w", err)
	}

	session, err := a.issue(ctx, account)
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("Auth service: signup completed", "email", email, "user_id", account.ID)
	return session, nil
}

// Login checks the password and issues a credential pair.
func (a *Auth) Login(ctx context.Context, email, password string) (Session, error) {
	a.logger.Debug("Auth service: starting login", "email", email)

	account, err := a.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: password mismatch", "email", email)
		return Session{}, ErrInvalidCredentials
	}

	session, err := a.issue(ctx, account)
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("Auth service: login completed", "email", email, "user_id", account.ID)
	return session, nil
}

// Logout revokes the presented refresh token. An unparseable or unknown token is ignored.
func (a *Auth) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := a.tokens.RevokeByToken(ctx, refreshToken); err != nil {
		a.logger.Debug("Auth service: refresh token not revoked", "error", err.Error())
	}
}

// Refresh rotates the presented refresh token.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	access, refresh, err := a.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: access, RefreshToken: refresh}, nil
}

// Account resolves the owner of an access token.
func (a *Auth) Account(ctx context.Context, userID uuid.UUID) (model.Account, error) {
	return a.accounts.GetByID(ctx, userID)
}

// RequestPasswordReset never reveals whether email belongs to an account.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) {
	if _, err := a.accounts.GetByEmail(ctx, email); err != nil {
		a.logger.Debug("Auth service: password reset for unknown email", "email", email)
		return
	}
	a.logger.Info("Auth service: password reset requested", "email", email)
}

// UpdatePassword replaces the password hash, revokes every refresh token of
// the user and issues a fresh pair for the caller.
func (a *Auth) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) (Session, error) {
	account, err := a.accounts.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), a.cost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.accounts.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return Session{}, fmt.Errorf("failed to update password: %w", err)
	}

	if err := a.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return Session{}, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	a.logger.Info("Auth service: password updated", "user_id", userID)
	return a.issue(ctx, account)
}

func (a *Auth) issue(ctx context.Context, account model.Account) (Session, error) {
	access, refresh, err := a.tokens.Issue(ctx, account.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", account.ID,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return Session{Account: account, AccessToken: access, RefreshToken: refresh}, nil
}
