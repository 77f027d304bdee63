package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      *domain.User
	Session   domain.SessionContext
	Token     string
	ExpiresAt time.Time
}

// AuthService checks credentials and issues session tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Login verifies email and password. Stores that own credentials check them
// themselves; otherwise the stored bcrypt hash is compared.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.Invalid("email", "required")
	}
	if password == "" {
		return nil, domain.Invalid("password", "required")
	}

	user, err := s.verify(ctx, email, password)
	if err != nil {
		s.logger.Debug("login rejected", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrInvalidCredentials)
	}

	session := domain.SessionContext{UserID: user.ID, Role: user.Role}
	token, expiresAt, err := s.tokens.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{User: user, Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) verify(ctx context.Context, email, password string) (*domain.User, error) {
	if authenticator, ok := s.users.(repository.Authenticator); ok {
		return authenticator.Authenticate(ctx, email, password)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}
