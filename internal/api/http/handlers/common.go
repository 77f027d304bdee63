package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/lifecycle"
	"github.com/portyard/port-ticket-service/internal/query"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

func session(c *fiber.Ctx) (domain.SessionContext, error) {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return domain.SessionContext{}, apperrors.NewUnauthorized("session required")
	}
	return s, nil
}

// listOptions reads search, page, page_size, sort and order.
func listOptions(c *fiber.Ctx) query.Options {
	return query.Options{
		SearchTerm: strings.TrimSpace(c.Query("search")),
		Page:       parseInt(c.Query("page"), 1),
		PageSize:   parseInt(c.Query("page_size"), query.DefaultPageSize),
		SortKey:    c.Query("sort"),
		Descending: strings.EqualFold(c.Query("order"), "desc"),
	}
}

func listResponse[T, R any](c *fiber.Ctx, result query.Result[T], mapper func(*T) R) error {
	items := make([]R, 0, len(result.Rows))
	for i := range result.Rows {
		items = append(items, mapper(&result.Rows[i]))
	}
	return c.JSON(dto.ListResponse[R]{
		Data: items,
		Meta: dto.ListMeta{
			TotalPages:  result.TotalPages,
			CurrentPage: result.CurrentPage,
			TotalRows:   result.TotalRows,
		},
	})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func optionalString(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	allowed := lifecycle.Allowed(t.State)
	events := make([]string, 0, len(allowed))
	for _, ev := range allowed {
		events = append(events, string(ev))
	}
	return dto.TicketResponse{
		ID:                 t.ID,
		Code:               t.Code,
		ClientID:           t.ClientID,
		ContainerID:        t.ContainerID,
		Transporter:        t.Transporter,
		Driver:             t.Driver,
		Plate:              t.Plate,
		Shift:              t.Shift,
		ZoneID:             t.ZoneID,
		State:              t.State,
		SlotID:             t.SlotID,
		AllowedEvents:      events,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		EnteredAt:          t.EnteredAt,
		HandlingFinishedAt: t.HandlingFinishedAt,
		CompletedAt:        t.CompletedAt,
		ExitedAt:           t.ExitedAt,
	}
}

func historyResponse(h *domain.TicketHistory) dto.TicketHistoryResponse {
	return dto.TicketHistoryResponse{
		ID:        h.ID,
		Event:     h.Event,
		FromState: h.FromState,
		ToState:   h.ToState,
		ActorID:   h.ActorID,
		ActorRole: h.ActorRole,
		SlotID:    h.SlotID,
		CreatedAt: h.CreatedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Company:       u.Company,
		Role:          u.Role,
		AccessLevelID: u.AccessLevelID,
		Active:        u.Active,
		CreatedAt:     u.CreatedAt,
	}
}

func containerResponse(ct *domain.Container) dto.ContainerResponse {
	return dto.ContainerResponse{
		ID:           ct.ID,
		Code:         ct.Code,
		Type:         ct.Type,
		Dimensions:   ct.Dimensions,
		WeightKg:     ct.WeightKg,
		ShipID:       ct.ShipID,
		ShippingLine: ct.ShippingLine,
		Location:     ct.Location,
		CreatedAt:    ct.CreatedAt,
	}
}

func fleetResponse(v *domain.FleetVehicle) dto.FleetResponse {
	return dto.FleetResponse{
		ID:          v.ID,
		ClientID:    v.ClientID,
		Plate:       v.Plate,
		Driver:      v.Driver,
		VehicleType: v.VehicleType,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
	}
}

func slotResponse(s *domain.Slot) dto.SlotResponse {
	return dto.SlotResponse{
		ID:        s.ID,
		ZoneID:    s.ZoneID,
		Label:     s.Label(),
		Row:       s.Row,
		Column:    s.Column,
		Tier:      s.Tier,
		Available: s.Available,
	}
}
