package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

// SessionRevoker abstracts the revocation store (Redis). Logged-out token
// ids are held until the token would have expired anyway.
type SessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService implements the authentication gate: registration, portal-
// enforced login, logout and profile maintenance.
type AuthService struct {
	users     ports.UserRepository
	sessions  SessionRevoker
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(users ports.UserRepository, sessions SessionRevoker, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, sessions: sessions, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Register creates a researcher or coordinator account and establishes a
// session. Any other role in the payload, notably admin, is rejected.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.Session, *domain.User, error) {
	role := domain.RoleResearcher
	if input.Role != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok || parsed == domain.RoleAdmin {
			return nil, nil, fmt.Errorf("%w: role %q cannot be self-assigned", domain.ErrForbidden, input.Role)
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Department:   input.Department,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.issueSession(created)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user registered")
	return session, created, nil
}

// Login resolves identifier as email or username and verifies the password.
// Unknown account, inactive account and password mismatch all collapse to
// the same generic failure so callers cannot enumerate accounts. Portal
// enforcement runs after the credential check; a rejected login never
// issues a session.
func (s *AuthService) Login(ctx context.Context, identifier, password string, portal domain.Portal) (*ports.Session, *domain.User, error) {
	if identifier == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	switch portal {
	case domain.PortalAdmin:
		if user.Role != domain.RoleAdmin {
			return nil, nil, fmt.Errorf("%w: the admin portal is restricted to administrators", domain.ErrForbidden)
		}
	case domain.PortalUser:
		if user.Role == domain.RoleAdmin {
			return nil, nil, fmt.Errorf("%w: administrators must use the admin portal", domain.ErrForbidden)
		}
	default:
		return nil, nil, domain.NewValidationError("portal must be one of: user, admin")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("username", user.Username).Msg("failed to record last login")
	}
	user.LastLogin = now

	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("username", user.Username).Str("portal", string(portal)).Msg("login")
	return session, user, nil
}

// Logout revokes the token id for the token's remaining lifetime. Calling
// it for an already-expired token is a no-op.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, tokenID, ttl); err != nil {
		s.log.Warn().Err(err).Str("token_id", tokenID).Msg("failed to revoke session token")
		return err
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ports.ProfileUpdate) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, update)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) issueSession(user *domain.User) (*ports.Session, error) {
	tokenID, err := newTokenID()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"jti":      tokenID,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &ports.Session{Token: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

func newTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
