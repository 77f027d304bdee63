package dto

import (
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the identity carried by a token.
type SessionResponse struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   SessionResponse `json:"session"`
	User      UserResponse    `json:"user"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"password"`
	Phone         string      `json:"phone"`
	Company       string      `json:"company"`
	Role          domain.Role `json:"role"`
	AccessLevelID string      `json:"access_level_id"`
}

// UpdateUserRequest payload; absent fields stay unchanged.
type UpdateUserRequest struct {
	Name          *string      `json:"name"`
	Email         *string      `json:"email"`
	Password      *string      `json:"password"`
	Phone         *string      `json:"phone"`
	Company       *string      `json:"company"`
	Role          *domain.Role `json:"role"`
	AccessLevelID *string      `json:"access_level_id"`
	Active        *bool        `json:"active"`
}

// UserResponse represents an account without its secret.
type UserResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Company       string      `json:"company"`
	Role          domain.Role `json:"role"`
	AccessLevelID string      `json:"access_level_id,omitempty"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"created_at"`
}
