package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
			Session: dto.SessionResponse{
				UserID: result.Session.UserID,
				Role:   result.Session.Role,
			},
			User: userResponse(result.User),
		},
	})
}
