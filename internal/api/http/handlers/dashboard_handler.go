package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
)

// DashboardHandler serves overview figures.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboardService}
}

// Client handles GET /dashboard/client.
func (h *DashboardHandler) Client(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	d, err := h.dashboard.Client(c.UserContext(), sess)
	if err != nil {
		return err
	}
	recent := make([]dto.TicketResponse, 0, len(d.Recent))
	for i := range d.Recent {
		recent = append(recent, ticketResponse(&d.Recent[i]))
	}
	return c.JSON(fiber.Map{"data": dto.ClientDashboardResponse{
		Counts:   d.Counts,
		Active:   d.Active,
		Finished: d.Finished,
		Vehicles: d.Vehicles,
		Unread:   d.Unread,
		Recent:   recent,
	}})
}

// Admin handles GET /dashboard/admin.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	d, err := h.dashboard.Admin(c.UserContext(), sess)
	if err != nil {
		return err
	}
	zones := make([]dto.ZoneResponse, 0, len(d.Zones))
	for _, z := range d.Zones {
		zones = append(zones, dto.ZoneResponse{ID: z.ZoneID, Capacity: z.Capacity, Free: z.Free, Held: z.Held})
	}
	return c.JSON(fiber.Map{"data": dto.AdminDashboardResponse{
		Counts:     d.Counts,
		Users:      d.Users,
		Containers: d.Containers,
		FreeSlots:  d.FreeSlots,
		HeldSlots:  d.HeldSlots,
		Zones:      zones,
	}})
}
