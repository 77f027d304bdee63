package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/simulator"
)

// MonitorHandler exposes the simulated turn queue.
type MonitorHandler struct {
	simulator *simulator.Simulator
}

// NewMonitorHandler constructs handler.
func NewMonitorHandler(sim *simulator.Simulator) *MonitorHandler {
	return &MonitorHandler{simulator: sim}
}

// Turns handles GET /monitor/turns.
func (h *MonitorHandler) Turns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": monitorResponse(h.simulator.Snapshot())})
}

// Refresh handles POST /monitor/refresh and reloads the working set.
func (h *MonitorHandler) Refresh(c *fiber.Ctx) error {
	if err := h.simulator.Refresh(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": monitorResponse(h.simulator.Snapshot())})
}

func monitorResponse(s simulator.Snapshot) dto.MonitorResponse {
	tickets := make([]dto.TicketResponse, 0, len(s.Tickets))
	for i := range s.Tickets {
		tickets = append(tickets, ticketResponse(&s.Tickets[i]))
	}
	resp := dto.MonitorResponse{
		Tickets:   tickets,
		Counts:    s.Counts,
		FreeSlots: s.FreeSlots,
		Now:       s.Now,
		Refreshed: s.Refreshed,
	}
	if s.Last != nil {
		resp.Last = &dto.AdvanceResponse{
			TicketID: s.Last.TicketID,
			Code:     s.Last.Code,
			Event:    string(s.Last.Event),
			From:     s.Last.From,
			To:       s.Last.To,
			SlotID:   s.Last.SlotID,
			At:       s.Last.At,
		}
	}
	return resp
}
