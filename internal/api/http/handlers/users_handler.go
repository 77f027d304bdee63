package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/service"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		parsed, ok := domain.ParseRole(raw)
		if !ok {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": raw})
		}
		role = &parsed
	}
	result, err := h.users.List(c.UserContext(), sess, role, listOptions(c))
	if err != nil {
		return err
	}
	return listResponse(c, result, userResponse)
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}
	user, err := h.users.Create(c.UserContext(), sess, service.UserInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Phone:         req.Phone,
		Company:       req.Company,
		Role:          role,
		AccessLevelID: req.AccessLevelID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UserUpdateInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Phone:         req.Phone,
		Company:       req.Company,
		AccessLevelID: req.AccessLevelID,
		Active:        req.Active,
	}
	if req.Role != nil {
		role, ok := domain.ParseRole(string(*req.Role))
		if !ok {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": *req.Role})
		}
		input.Role = &role
	}
	user, err := h.users.Update(c.UserContext(), sess, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
