package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/query"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// UserInput carries the fields of a new account.
type UserInput struct {
	Name          string
	Email         string
	Password      string
	Phone         string
	Company       string
	Role          domain.Role
	AccessLevelID string
}

// UserUpdateInput carries the fields to change; nil means unchanged.
type UserUpdateInput struct {
	Name          *string
	Email         *string
	Password      *string
	Phone         *string
	Company       *string
	Role          *domain.Role
	AccessLevelID *string
	Active        *bool
}

// UserService manages dashboard accounts.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// Create adds an account. Admin only.
func (s *UserService) Create(ctx context.Context, session domain.SessionContext, input UserInput) (*domain.User, error) {
	if !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Invalid("name", "required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < 6 {
		return nil, domain.Invalid("password", "must be at least 6 characters")
	}
	if !input.Role.Valid() {
		return nil, domain.Invalid("role", "unknown role")
	}
	secret, err := s.secret(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:          name,
		Email:         email,
		PasswordHash:  secret,
		Phone:         strings.TrimSpace(input.Phone),
		Company:       strings.TrimSpace(input.Company),
		Role:          input.Role,
		AccessLevelID: strings.TrimSpace(input.AccessLevelID),
		Active:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update changes an account. Admin only.
func (s *UserService) Update(ctx context.Context, session domain.SessionContext, id string, input UserUpdateInput) (*domain.User, error) {
	if !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Invalid("name", "required")
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, domain.Invalid("password", "must be at least 6 characters")
		}
		secret, err := s.secret(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = secret
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Company != nil {
		user.Company = strings.TrimSpace(*input.Company)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, domain.Invalid("role", "unknown role")
		}
		if id == session.UserID && *input.Role != domain.RoleAdmin {
			return nil, domain.Invalid("role", "cannot demote yourself")
		}
		user.Role = *input.Role
	}
	if input.AccessLevelID != nil {
		user.AccessLevelID = strings.TrimSpace(*input.AccessLevelID)
	}
	if input.Active != nil {
		if id == session.UserID && !*input.Active {
			return nil, domain.Invalid("active", "cannot disable yourself")
		}
		user.Active = *input.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes an account. Admin only.
func (s *UserService) Delete(ctx context.Context, session domain.SessionContext, id string) error {
	if !session.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	if id == session.UserID {
		return domain.Invalid("id", "cannot delete yourself")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// Get returns an account. Users may read their own; admins any.
func (s *UserService) Get(ctx context.Context, session domain.SessionContext, id string) (*domain.User, error) {
	if id != session.UserID && !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// List runs the query engine over accounts, optionally narrowed to a role.
func (s *UserService) List(ctx context.Context, session domain.SessionContext, role *domain.Role, opts query.Options) (query.Result[domain.User], error) {
	if !session.HasRole(domain.RoleAdmin) {
		return query.Result[domain.User]{}, domain.ErrForbidden
	}
	var (
		users []domain.User
		err   error
	)
	if role != nil {
		users, err = s.users.ListByRole(ctx, *role)
	} else {
		users, err = s.users.List(ctx)
	}
	if err != nil {
		return query.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return UserTable.Query(users, opts), nil
}

// secret returns what the store keeps as password: a bcrypt hash, or the
// raw password for stores that authenticate on their own.
func (s *UserService) secret(password string) (string, error) {
	if _, ok := s.users.(repository.Authenticator); ok {
		return password, nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.Invalid("email", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.Invalid("email", "malformed address")
	}
	return email, nil
}
