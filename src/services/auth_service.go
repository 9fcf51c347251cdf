package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// SessionCookies is the transport-side cookie jar AuthService reads from. It is
// satisfied by cookies.Service.
type SessionCookies interface {
	AccessToken() (string, bool)
	ClearAll() error
}

// Result is the outcome of a logout-style operation
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResult carries the token back to the HTTP layer, which sets the cookie
type LoginResult struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	User      *models.PublicAdminUser `json:"user,omitempty"`
	Token     string                  `json:"-"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// AuthService orchestrates login, logout and identity resolution. It never
// writes cookies itself except to clear them when GetCurrentUser finds the
// stored token invalid.
type AuthService struct {
	admins      repositories.AdminRepository
	passwords   *PasswordService
	tokens      *TokenService
	strategy    TokenStrategy
	sessionDays int
	logger      zerolog.Logger
	nowFunc     func() time.Time
	dummyHash   string
}

// timingFallbackHash is a well-formed cost-12 hash used for unknown emails when
// the placeholder cannot be hashed at startup.
const timingFallbackHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// NewAuthService creates a new authentication service. A nil strategy selects
// the database strategy.
func NewAuthService(admins repositories.AdminRepository, passwords *PasswordService, tokens *TokenService, strategy TokenStrategy) *AuthService {
	if strategy == nil {
		strategy = NewDatabaseStrategy(tokens)
	}
	s := &AuthService{
		admins:      admins,
		passwords:   passwords,
		tokens:      tokens,
		strategy:    strategy,
		sessionDays: DefaultTokenLifetimeDays,
		logger:      logging.NewLogger("auth_service"),
		nowFunc:     time.Now,
		dummyHash:   timingFallbackHash,
	}
	if hash, err := passwords.Hash("timing-equalization-placeholder"); err == nil {
		s.dummyHash = hash
	} else {
		s.logger.Warn().Err(err).Msg("Using fallback hash for unknown-email timing")
	}
	return s
}

// WithSessionDays overrides the 7-day session lifetime
func (s *AuthService) WithSessionDays(days int) *AuthService {
	if days > 0 {
		s.sessionDays = days
	}
	return s
}

// Strategy returns the active token strategy
func (s *AuthService) Strategy() TokenStrategy {
	return s.strategy
}

// SessionDays returns the lifetime given to new sessions
func (s *AuthService) SessionDays() int {
	return s.sessionDays
}

// Login checks credentials and issues a session token. An unknown email and a
// wrong password fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials, meta models.ClientMeta) (*LoginResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	user, err := s.admins.FindByEmail(ctx, creds.Email)
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return nil, err
		}
		// Spend the same bcrypt time as a real comparison
		_, _ = s.passwords.Verify(creds.Password, s.dummyHash)
		s.loginFailed(creds.Email, meta, "unknown_email")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.passwords.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Stored password hash is unusable")
	}
	if !ok {
		s.loginFailed(creds.Email, meta, "wrong_password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.strategy.Issue(ctx, user, meta, s.sessionDays)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	if err := s.admins.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	logging.SecurityEvent(&s.logger, zerolog.InfoLevel, "login_succeeded").
		Str("user_id", user.ID.String()).
		Str("ip", meta.IPAddress).
		Str("strategy", s.strategy.Name()).
		Send()

	return &LoginResult{
		Success:   true,
		Message:   "Login successful",
		User:      user.Public(),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *AuthService) loginFailed(email string, meta models.ClientMeta, reason string) {
	logging.SecurityEvent(&s.logger, zerolog.WarnLevel, "login_failed").
		Str("email", email).
		Str("ip", meta.IPAddress).
		Str("reason", reason).
		Send()
}

// GetCurrentUser resolves the identity behind the access-token cookie. A missing
// or invalid token yields (nil, nil) and clears every auth cookie. A store
// failure is returned and the cookies are left alone.
func (s *AuthService) GetCurrentUser(ctx context.Context, cookies SessionCookies) (*models.AuthUser, error) {
	token, _ := cookies.AccessToken()
	user, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if err := cookies.ClearAll(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear auth cookies")
	}
	return nil, nil
}

// IsAuthenticated reports whether GetCurrentUser resolves a user
func (s *AuthService) IsAuthenticated(ctx context.Context, cookies SessionCookies) bool {
	user, _ := s.GetCurrentUser(ctx, cookies)
	return user != nil
}

// Logout revokes the cookie's token server-side and always succeeds. It does
// not clear the cookie; the HTTP caller does that.
func (s *AuthService) Logout(ctx context.Context, cookies SessionCookies) Result {
	if token, ok := cookies.AccessToken(); ok && token != "" {
		revoked, err := s.strategy.Revoke(ctx, token)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to revoke token on logout")
		} else if revoked {
			logging.SecurityEvent(&s.logger, zerolog.InfoLevel, "logout").Send()
		}
	}
	return Result{Success: true, Message: "Logged out successfully"}
}

// LogoutAllDevices revokes every session of a user
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID uuid.UUID) (Result, error) {
	n, err := s.tokens.RevokeAllUserTokens(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	logging.SecurityEvent(&s.logger, zerolog.InfoLevel, "logout_all").
		Str("user_id", userID.String()).
		Int64("revoked", n).
		Send()
	return Result{Success: true, Message: "Logged out from all devices"}, nil
}

// ResolveSession returns the identity for a token. A missing, expired or revoked
// token yields (nil, nil); an error means the session could not be checked.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.AuthUser, error) {
	if token == "" {
		return nil, nil
	}
	identity, err := s.strategy.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}
	return &models.AuthUser{ID: identity.UserID, Email: identity.Email}, nil
}

// ValidateToken returns the identity for a token, or nil. Store errors are logged, never returned.
func (s *AuthService) ValidateToken(ctx context.Context, token string) *models.AuthUser {
	user, err := s.ResolveSession(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token validation failed")
		return nil
	}
	return user
}

// GetUserProfile returns the admin without the password hash
func (s *AuthService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.PublicAdminUser, error) {
	return s.admins.FindByIDPublic(ctx, userID)
}

// GetActiveSessions lists the user's live sessions, most recently used first
func (s *AuthService) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.SessionInfo, error) {
	return s.tokens.GetUserTokens(ctx, userID)
}

// RevokeSession revokes one of the user's own sessions by id
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	ok, err := s.tokens.RevokeTokenByID(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// CleanupExpiredTokens runs the expired/revoked sweep
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanupExpiredTokens(ctx)
}

// IsFirstAdmin reports whether no admin exists yet
func (s *AuthService) IsFirstAdmin(ctx context.Context) (bool, error) {
	has, err := s.admins.HasAdmins(ctx)
	if err != nil {
		return false, err
	}
	return !has, nil
}
