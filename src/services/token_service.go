package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// TokenBytes is the entropy of a session token; it is hex encoded to 128 chars
const TokenBytes = 64

// DefaultTokenLifetimeDays applies when a caller passes a non-positive lifetime
const DefaultTokenLifetimeDays = 7

// CreateTokenInput describes a new session
type CreateTokenInput struct {
	UserID        uuid.UUID
	ExpiresInDays int
	UserAgent     string
	IPAddress     string
}

// TokenService owns the session lifecycle:
//
//	ACTIVE -> EXPIRED   when now >= expires_at
//	EXPIRED -> REVOKED  as a side effect of ValidateToken
//	ACTIVE -> REVOKED   on logout or logout-all
//	REVOKED|EXPIRED -> deleted by CleanupExpiredTokens or DeleteToken
//
// A revoke that commits after a concurrent ValidateToken has read the row does not
// fence that request; the next validation observes it.
type TokenService struct {
	repo    repositories.TokenRepository
	logger  zerolog.Logger
	nowFunc func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(repo repositories.TokenRepository) *TokenService {
	return &TokenService{
		repo:    repo,
		logger:  logging.NewLogger("token_service"),
		nowFunc: time.Now,
	}
}

// WithClock replaces the time source (for testing)
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.nowFunc = now
	return s
}

func (s *TokenService) now() time.Time {
	return s.nowFunc().UTC()
}

// GenerateSecureToken returns 64 bytes from crypto/rand as lowercase hex
func (s *TokenService) GenerateSecureToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.WithCause(apperr.KindToken, "token.generate", "failed to generate token", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateToken persists a new active session and returns its secret once
func (s *TokenService) CreateToken(ctx context.Context, in CreateTokenInput) (*models.TokenData, error) {
	days := in.ExpiresInDays
	if days <= 0 {
		days = DefaultTokenLifetimeDays
	}

	value, err := s.GenerateSecureToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	token := &models.AuthToken{
		ID:        uuid.New(),
		Token:     value,
		UserID:    in.UserID,
		ExpiresAt: now.AddDate(0, 0, days),
		CreatedAt: now,
		UserAgent: in.UserAgent,
		IPAddress: in.IPAddress,
	}

	if err := s.repo.Create(ctx, token); err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID.String()).Msg("Failed to store token")
		return nil, apperr.WithCause(apperr.KindToken, "token.create", "failed to create token", err)
	}

	return &models.TokenData{
		ID:        token.ID,
		Token:     token.Token,
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}, nil
}

// ValidateToken returns the owner identity of an active token, or nil for a
// missing, revoked or expired one.
//
// Postconditions: an expired token is revoked before nil is returned, and an
// active token has last_used_at set to now. Only store failures return an error.
func (s *TokenService) ValidateToken(ctx context.Context, value string) (*models.TokenIdentity, error) {
	if value == "" {
		return nil, nil
	}

	tok, err := s.repo.FindByValue(ctx, value)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if tok.IsRevoked {
		return nil, nil
	}

	now := s.now()
	if !now.Before(tok.ExpiresAt) {
		if _, err := s.repo.Revoke(ctx, value); err != nil {
			return nil, err
		}
		s.logger.Info().
			Str("token_id", tok.ID.String()).
			Str("user_id", tok.UserID.String()).
			Msg("Expired token revoked on validation")
		return nil, nil
	}

	if err := s.repo.TouchLastUsed(ctx, tok.ID, now); err != nil {
		// last_used_at is diagnostic only
		s.logger.Warn().Err(err).Str("token_id", tok.ID.String()).Msg("Failed to update token last use")
	}

	return &models.TokenIdentity{
		TokenID: tok.ID,
		UserID:  tok.UserID,
		Email:   tok.Email,
	}, nil
}

// RevokeToken revokes one token. It returns false when no live token matched,
// which keeps repeated logouts harmless.
func (s *TokenService) RevokeToken(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return s.repo.Revoke(ctx, value)
}

// RevokeAllUserTokens revokes every live session of a user and returns how many were revoked
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("user_id", userID.String()).Int64("revoked", n).Msg("Revoked all user tokens")
	return n, nil
}

// RevokeTokenByID revokes a session by id, only if userID owns it
func (s *TokenService) RevokeTokenByID(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	return s.repo.RevokeByID(ctx, userID, tokenID)
}

// DeleteToken hard-deletes one token row
func (s *TokenService) DeleteToken(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return s.repo.Delete(ctx, value)
}

// CleanupExpiredTokens deletes every expired or revoked row. It is idempotent and
// safe to run alongside live traffic.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredOrRevoked(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("Token cleanup completed")
	}
	return n, nil
}

// GetUserTokens lists active sessions, most recently used first, without secrets
func (s *TokenService) GetUserTokens(ctx context.Context, userID uuid.UUID) ([]models.SessionInfo, error) {
	tokens, err := s.repo.ListActiveForUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	sessions := make([]models.SessionInfo, 0, len(tokens))
	for i := range tokens {
		sessions = append(sessions, tokens[i].Session())
	}
	return sessions, nil
}

// ExtendTokenExpiry sets expires_at to now + days without rotating the value.
// Revoked or already expired tokens are left alone and yield false.
func (s *TokenService) ExtendTokenExpiry(ctx context.Context, value string, days int) (bool, error) {
	if value == "" {
		return false, nil
	}
	if days <= 0 {
		days = DefaultTokenLifetimeDays
	}
	now := s.now()
	return s.repo.ExtendExpiry(ctx, value, now, now.AddDate(0, 0, days))
}
