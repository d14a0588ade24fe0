package devserver

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenStore)(nil)

// RefreshTokenStore keeps issued refresh tokens in memory.
type RefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{tokens: make(map[string]model.RefreshToken)}
}

func (s *RefreshTokenStore) Create(_ context.Context, token model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.JTI] = token
	return nil
}

func (s *RefreshTokenStore) GetByJTI(_ context.Context, jti string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	return rt, nil
}

func (s *RefreshTokenStore) RevokeByJTI(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[jti]
	if !ok {
		return model.ErrTokenNotFound
	}
	now := time.Now()
	rt.RevokedAt = &now
	s.tokens[jti] = rt
	return nil
}

func (s *RefreshTokenStore) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for jti, rt := range s.tokens {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			s.tokens[jti] = rt
		}
	}
	return nil
}

// TokenManager is the subset of token.JWT the service needs.
type TokenManager interface {
	model.TokenManager
	RefreshTTL() time.Duration
}

// TokenService issues, rotates and revokes credential pairs.
type TokenService struct {
	manager TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
}

func NewTokenService(manager TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Issue creates a new access/refresh pair for userID.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (accessToken string, refreshToken string, err error) {
	return s.issue(ctx, userID, nil)
}

// Refresh rotates presentedRefresh: it is revoked and a new pair issued.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (newAccess string, newRefresh string, err error) {
	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return "", "", err
	}

	rt, err := s.store.GetByJTI(ctx, jti)
	if err != nil {
		return "", "", err
	}

	if err := validateRecord(rt, hashRefresh(presentedRefresh), time.Now()); err != nil {
		s.logger.Warn("Token service: refresh rejected",
			"jti", jti,
			"error", err.Error())
		return "", "", err
	}

	if err := s.store.RevokeByJTI(ctx, jti); err != nil {
		return "", "", fmt.Errorf("revoke old refresh: %w", err)
	}

	return s.issue(ctx, rt.UserID, &rt.JTI)
}

// RevokeByToken revokes a presented refresh token.
func (s *TokenService) RevokeByToken(ctx context.Context, presentedRefresh string) error {
	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return err
	}
	return s.store.RevokeByJTI(ctx, jti)
}

// RevokeAllForUser revokes every refresh token of userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// GetUserID resolves an access token.
func (s *TokenService) GetUserID(_ context.Context, token string) (uuid.UUID, error) {
	return s.manager.ParseAccessToken(token)
}

func (s *TokenService) issue(ctx context.Context, userID uuid.UUID, rotatedFrom *string) (string, string, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		JTI:            jti,
		UserID:         userID,
		TokenHash:      hashRefresh(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.manager.RefreshTTL()),
		RotatedFromJTI: rotatedFrom,
	}
	if err := s.store.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("persist refresh: %w", err)
	}

	return access, refresh, nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if subtle.ConstantTimeCompare(rt.TokenHash, presentedHash) != 1 {
		return model.ErrTokenMismatch
	}
	return nil
}
