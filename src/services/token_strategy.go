package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
)

// MinSigningSecretLength is the HS256 key size in bytes
const MinSigningSecretLength = 32

// TokenStrategy issues and checks session credentials. Exactly one strategy is
// active at runtime.
type TokenStrategy interface {
	Name() string
	Issue(ctx context.Context, user *models.AdminUser, meta models.ClientMeta, days int) (*models.TokenData, error)
	// Validate returns nil for any credential that is not currently valid
	Validate(ctx context.Context, token string) (*models.TokenIdentity, error)
	// Revoke reports whether the credential was revoked server-side
	Revoke(ctx context.Context, token string) (bool, error)
}

// DatabaseStrategy uses opaque tokens stored in the relational store. It gives
// immediate revocation at the cost of one lookup per request.
type DatabaseStrategy struct {
	tokens *TokenService
}

// NewDatabaseStrategy creates the default strategy
func NewDatabaseStrategy(tokens *TokenService) *DatabaseStrategy {
	return &DatabaseStrategy{tokens: tokens}
}

func (d *DatabaseStrategy) Name() string { return "database" }

func (d *DatabaseStrategy) Issue(ctx context.Context, user *models.AdminUser, meta models.ClientMeta, days int) (*models.TokenData, error) {
	return d.tokens.CreateToken(ctx, CreateTokenInput{
		UserID:        user.ID,
		ExpiresInDays: days,
		UserAgent:     meta.UserAgent,
		IPAddress:     meta.IPAddress,
	})
}

func (d *DatabaseStrategy) Validate(ctx context.Context, token string) (*models.TokenIdentity, error) {
	return d.tokens.ValidateToken(ctx, token)
}

func (d *DatabaseStrategy) Revoke(ctx context.Context, token string) (bool, error) {
	return d.tokens.RevokeToken(ctx, token)
}

// sessionClaims are the claims of a signed session token
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignedStrategy issues stateless HS256 JWTs. Tokens cannot be revoked before
// they expire; logout only clears the cookie.
type SignedStrategy struct {
	secret  []byte
	logger  zerolog.Logger
	nowFunc func() time.Time
}

// NewSignedStrategy creates the stateless strategy
func NewSignedStrategy(secret string) (*SignedStrategy, error) {
	if len(secret) < MinSigningSecretLength {
		return nil, ErrWeakSigningSecret
	}
	return &SignedStrategy{
		secret:  []byte(secret),
		logger:  logging.NewLogger("signed_strategy"),
		nowFunc: time.Now,
	}, nil
}

func (s *SignedStrategy) Name() string { return "signed" }

func (s *SignedStrategy) Issue(_ context.Context, user *models.AdminUser, _ models.ClientMeta, days int) (*models.TokenData, error) {
	if days <= 0 {
		days = DefaultTokenLifetimeDays
	}
	now := s.nowFunc().UTC().Truncate(time.Second)
	expiresAt := now.AddDate(0, 0, days)
	id := uuid.New()

	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperr.WithCause(apperr.KindToken, "token.sign", "failed to sign token", err)
	}

	return &models.TokenData{
		ID:        id,
		Token:     signed,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

func (s *SignedStrategy) Validate(_ context.Context, token string) (*models.TokenIdentity, error) {
	if token == "" {
		return nil, nil
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.nowFunc), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug().Err(err).Msg("Rejected signed token")
		}
		return nil, nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, nil
	}

	return &models.TokenIdentity{TokenID: tokenID, UserID: userID, Email: claims.Email}, nil
}

// Revoke always reports false; stateless tokens live until they expire
func (s *SignedStrategy) Revoke(_ context.Context, _ string) (bool, error) {
	return false, nil
}
