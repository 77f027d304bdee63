package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// ContainersHandler exposes container queries and administration.
type ContainersHandler struct {
	containers *service.ContainerService
}

// NewContainersHandler constructs handler.
func NewContainersHandler(containerService *service.ContainerService) *ContainersHandler {
	return &ContainersHandler{containers: containerService}
}

// List handles GET /containers.
func (h *ContainersHandler) List(c *fiber.Ctx) error {
	result, err := h.containers.List(c.UserContext(), listOptions(c))
	if err != nil {
		return err
	}
	return listResponse(c, result, containerResponse)
}

// Get handles GET /containers/:id with its event log and related ticket.
func (h *ContainersHandler) Get(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	detail, err := h.containers.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.ContainerDetailResponse{
		ContainerResponse: containerResponse(&detail.Container),
		Events:            make([]dto.ContainerEventResponse, 0, len(detail.Events)),
	}
	for _, ev := range detail.Events {
		resp.Events = append(resp.Events, dto.ContainerEventResponse{
			ID:        ev.ID,
			TicketID:  ev.TicketID,
			Event:     ev.Event,
			ActorID:   ev.ActorID,
			CreatedAt: ev.CreatedAt,
		})
	}
	if detail.Ticket != nil {
		t := ticketResponse(detail.Ticket)
		resp.Ticket = &t
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create handles POST /containers.
func (h *ContainersHandler) Create(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.ContainerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Code == "" {
		return apperrors.NewValidationError("code required", nil)
	}
	container, err := h.containers.Create(c.UserContext(), sess, service.ContainerInput{
		Code:       req.Code,
		Type:       req.Type,
		Dimensions: req.Dimensions,
		WeightKg:   req.WeightKg,
		ShipID:     req.ShipID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": containerResponse(container)})
}

// Update handles PATCH /containers/:id.
func (h *ContainersHandler) Update(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.UpdateContainerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	container, err := h.containers.Update(c.UserContext(), sess, c.Params("id"), service.ContainerUpdateInput{
		Code:       req.Code,
		Type:       req.Type,
		Dimensions: req.Dimensions,
		WeightKg:   req.WeightKg,
		ShipID:     req.ShipID,
		Location:   req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": containerResponse(container)})
}

// Delete handles DELETE /containers/:id.
func (h *ContainersHandler) Delete(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.containers.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
