package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// FleetHandler manages the trucks of a client.
type FleetHandler struct {
	fleet *service.FleetService
}

// NewFleetHandler constructs handler.
func NewFleetHandler(fleetService *service.FleetService) *FleetHandler {
	return &FleetHandler{fleet: fleetService}
}

// List handles GET /fleet. Staff may pass client_id.
func (h *FleetHandler) List(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	result, err := h.fleet.List(c.UserContext(), sess, c.Query("client_id"), listOptions(c))
	if err != nil {
		return err
	}
	return listResponse(c, result, fleetResponse)
}

// Create handles POST /fleet.
func (h *FleetHandler) Create(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.FleetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Plate == "" {
		return apperrors.NewValidationError("plate required", nil)
	}
	vehicle, err := h.fleet.Create(c.UserContext(), sess, service.FleetInput{
		Plate:       req.Plate,
		Driver:      req.Driver,
		VehicleType: req.VehicleType,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fleetResponse(vehicle)})
}

// Update handles PATCH /fleet/:id.
func (h *FleetHandler) Update(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.UpdateFleetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	vehicle, err := h.fleet.Update(c.UserContext(), sess, c.Params("id"), service.FleetUpdateInput{
		Plate:       req.Plate,
		Driver:      req.Driver,
		VehicleType: req.VehicleType,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fleetResponse(vehicle)})
}

// Delete handles DELETE /fleet/:id.
func (h *FleetHandler) Delete(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.fleet.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
