package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/domain"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// RequireRole ensures the session has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !session.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff admits operators and administrators.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleOperator, domain.RoleAdmin)
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole()
}
