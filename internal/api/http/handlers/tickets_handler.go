package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/service"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ContainerID) == "" {
		return apperrors.NewValidationError("container_id required", nil)
	}

	input := service.TicketCreateInput{
		ClientID:    req.ClientID,
		ContainerID: req.ContainerID,
		Transporter: req.Transporter,
		Driver:      req.Driver,
		Plate:       req.Plate,
		Shift:       req.Shift,
		ZoneID:      req.ZoneID,
	}
	ticket, err := h.service.Create(c.UserContext(), sess, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	input := service.TicketListInput{
		Query:       listOptions(c),
		ContainerID: optionalString(c.Query("container_id")),
	}
	if raw := c.Query("state"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			state := domain.TicketState(strings.ToUpper(strings.TrimSpace(part)))
			if !state.Valid() {
				return apperrors.NewValidationError("unknown state", map[string]any{"state": part})
			}
			input.States = append(input.States, state)
		}
	}
	result, err := h.service.List(c.UserContext(), sess, input)
	if err != nil {
		return err
	}
	return listResponse(c, result, ticketResponse)
}

// ListHistory GET /tickets/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	result, err := h.service.History(c.UserContext(), sess, listOptions(c))
	if err != nil {
		return err
	}
	return listResponse(c, result, ticketResponse)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Timeline GET /tickets/:id/timeline.
func (h *TicketsHandler) Timeline(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	entries, err := h.service.Timeline(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

type ticketAction func(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error)

func (h *TicketsHandler) action(fn ticketAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c)
		if err != nil {
			return err
		}
		ticket, err := fn(c.UserContext(), sess, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
	}
}

// Enqueue POST /tickets/:id/enqueue.
func (h *TicketsHandler) Enqueue(c *fiber.Ctx) error { return h.action(h.service.Enqueue)(c) }

// Cancel POST /tickets/:id/cancel.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error { return h.action(h.service.Cancel)(c) }

// Validate POST /tickets/:id/validate.
func (h *TicketsHandler) Validate(c *fiber.Ctx) error { return h.action(h.service.Validate)(c) }

// RegisterEntry POST /tickets/:id/entry.
func (h *TicketsHandler) RegisterEntry(c *fiber.Ctx) error {
	return h.action(h.service.RegisterEntry)(c)
}

// FinishHandling POST /tickets/:id/handling.
func (h *TicketsHandler) FinishHandling(c *fiber.Ctx) error {
	return h.action(h.service.FinishHandling)(c)
}

// Complete POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error { return h.action(h.service.Complete)(c) }

// RegisterExit POST /tickets/:id/exit.
func (h *TicketsHandler) RegisterExit(c *fiber.Ctx) error {
	return h.action(h.service.RegisterExit)(c)
}
