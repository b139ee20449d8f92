package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/attachtrack/attachtrack/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ResetSentinel is returned to clients whose credential still carries the
// temporary password
const ResetSentinel = "Reset"

const invalidLoginMessage = "Invalid username/password"

// Identity is the summary of a logged-in credential
type Identity struct {
	ID       int64                 `json:"id"`
	Username string                `json:"username"`
	Type     models.CredentialType `json:"type"`
	TypeID   int64                 `json:"typeID"`
}

// LoginResult is either a reset request or an identity with its token
type LoginResult struct {
	Reset       bool
	Identity    *Identity
	AccessToken string
	ExpiresIn   int
}

// AuthService handles login, password reset and admin seeding
type AuthService struct {
	store      repositories.Store
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	store repositories.Store,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:      store,
		hasher:     hasher,
		jwtService: jwtService,
		logger:     logger,
	}
}

func invalidLogin() error {
	return apperrors.NewUnauthorizedError(invalidLoginMessage)
}

// canonicalUsername is the form ingestion stores usernames in: lower-case
// emails for supervisors, upper-case registration numbers for students
func canonicalUsername(username string) string {
	if strings.Contains(username, "@") {
		return models.NormalizeEmail(username)
	}
	return models.NormalizeNaturalKey(username)
}

// findUser looks username up as typed, then in its canonical form
func (s *AuthService) findUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	user, err := s.store.Users().GetByUsername(ctx, username)
	if !errors.Is(err, repositories.ErrNotFound) {
		return user, err
	}
	if canonical := canonicalUsername(username); canonical != username {
		return s.store.Users().GetByUsername(ctx, canonical)
	}
	return nil, err
}

// Login verifies username and password. A credential in the reset state only
// accepts its temporary password and yields a reset result without a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.RecordLogin("failed")
			s.logger.Warn().Str("username", username).Msg("Login attempt for unknown user")
			return nil, invalidLogin()
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	if user.Reset {
		if user.TempPassword == nil || !s.hasher.Compare(*user.TempPassword, password) {
			metrics.RecordLogin("failed")
			return nil, invalidLogin()
		}
		metrics.RecordLogin("reset")
		return &LoginResult{Reset: true}, nil
	}

	if !s.hasher.Compare(user.Password, password) {
		metrics.RecordLogin("failed")
		s.logger.Warn().Int64("userID", user.ID).Msg("Login attempt with wrong password")
		return nil, invalidLogin()
	}

	identity := &Identity{
		ID:       user.ID,
		Username: user.Username,
		Type:     user.Type,
		TypeID:   user.TypeID,
	}
	token, expiresIn, err := s.jwtService.GenerateAccessToken(auth.Subject{
		CredentialID: user.ID,
		Username:     user.Username,
		Type:         string(user.Type),
		TypeID:       user.TypeID,
	})
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	metrics.RecordLogin("ok")
	s.logger.Info().Int64("userID", user.ID).Str("type", string(user.Type)).Msg("User logged in")
	return &LoginResult{Identity: identity, AccessToken: token, ExpiresIn: expiresIn}, nil
}

// ResetPassword stores a new password for username, leaves the reset state
// and logs in with it
func (s *AuthService) ResetPassword(ctx context.Context, username, newPassword string) (*LoginResult, error) {
	if newPassword == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Password is required")
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewBadRequestError("Invalid request")
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("error updating password: %w", err)
	}
	s.logger.Info().Int64("userID", user.ID).Msg("Password reset")

	return s.Login(ctx, user.Username, newPassword)
}

// EnsureAdmin creates the Admin credential username when it is missing. The
// password doubles as the temporary password so the first login forces a
// reset. It reports whether a credential was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, fmt.Errorf("admin username and password are required")
	}

	_, err := s.store.Users().GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, fmt.Errorf("error checking admin user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("error hashing admin password: %w", err)
	}
	admin := &models.User{
		Type:         models.CredentialAdmin,
		Username:     username,
		Password:     hash,
		TempPassword: &hash,
		Reset:        true,
		DateCreated:  time.Now(),
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("error creating admin user: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("Admin credential created")
	return true, nil
}
