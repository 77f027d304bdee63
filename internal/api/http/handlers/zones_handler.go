package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
)

// ZonesHandler serves yard layout and reference data.
type ZonesHandler struct {
	zones *service.ZoneService
}

// NewZonesHandler constructs handler.
func NewZonesHandler(zoneService *service.ZoneService) *ZonesHandler {
	return &ZonesHandler{zones: zoneService}
}

func zoneResponse(v service.ZoneView) dto.ZoneResponse {
	return dto.ZoneResponse{
		ID:       v.Zone.ID,
		Name:     v.Zone.Name,
		Capacity: v.Capacity,
		Free:     v.Free,
		Held:     v.Held,
	}
}

// ListZones handles GET /zones.
func (h *ZonesHandler) ListZones(c *fiber.Ctx) error {
	views, err := h.zones.ListZones(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ZoneResponse, 0, len(views))
	for _, v := range views {
		items = append(items, zoneResponse(v))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetZone handles GET /zones/:id.
func (h *ZonesHandler) GetZone(c *fiber.Ctx) error {
	view, err := h.zones.GetZone(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": zoneResponse(*view)})
}

// ListSlots handles GET /slots?zone_id=&free=true.
func (h *ZonesHandler) ListSlots(c *fiber.Ctx) error {
	slots := h.zones.ListSlots(c.UserContext(), service.SlotFilter{
		ZoneID:   c.Query("zone_id"),
		FreeOnly: c.QueryBool("free"),
	})
	items := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, slotResponse(&slots[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Ships handles GET /ships.
func (h *ZonesHandler) Ships(c *fiber.Ctx) error {
	ships, err := h.zones.Ships(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ShipResponse, 0, len(ships))
	for _, s := range ships {
		items = append(items, dto.ShipResponse{ID: s.ID, Name: s.Name, ShippingLine: s.ShippingLine})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Roles handles GET /roles.
func (h *ZonesHandler) Roles(c *fiber.Ctx) error {
	roles, err := h.zones.Roles(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceResponse, 0, len(roles))
	for _, r := range roles {
		items = append(items, dto.ReferenceResponse{ID: r.ID, Name: r.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AccessLevels handles GET /access-levels.
func (h *ZonesHandler) AccessLevels(c *fiber.Ctx) error {
	levels, err := h.zones.AccessLevels(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceResponse, 0, len(levels))
	for _, l := range levels {
		items = append(items, dto.ReferenceResponse{ID: l.ID, Name: l.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}
