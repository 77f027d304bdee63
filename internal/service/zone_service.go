package service

import (
	"context"
	"fmt"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// ZoneView is a zone with its live occupancy.
type ZoneView struct {
	Zone     domain.Zone
	Capacity int
	Free     int
	Held     int
}

// SlotFilter narrows a slot listing.
type SlotFilter struct {
	ZoneID   string
	FreeOnly bool
}

// ZoneService exposes yard layout and reference data.
type ZoneService struct {
	zones     repository.ZoneRepository
	reference repository.ReferenceRepository
	ledger    *ledger.Ledger
}

// NewZoneService builds the service.
func NewZoneService(zones repository.ZoneRepository, reference repository.ReferenceRepository, l *ledger.Ledger) *ZoneService {
	return &ZoneService{zones: zones, reference: reference, ledger: l}
}

// ListZones returns every zone with occupancy taken from the ledger.
func (s *ZoneService) ListZones(ctx context.Context) ([]ZoneView, error) {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	summary := s.summary()
	out := make([]ZoneView, 0, len(zones))
	for _, z := range zones {
		out = append(out, s.view(z, summary))
	}
	return out, nil
}

// GetZone returns one zone with its occupancy.
func (s *ZoneService) GetZone(ctx context.Context, id string) (*ZoneView, error) {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(*zone, s.summary())
	return &view, nil
}

// ListSlots returns slots in ledger order.
func (s *ZoneService) ListSlots(_ context.Context, filter SlotFilter) []domain.Slot {
	all := s.ledger.Slots()
	out := make([]domain.Slot, 0, len(all))
	for _, slot := range all {
		if filter.ZoneID != "" && slot.ZoneID != filter.ZoneID {
			continue
		}
		if filter.FreeOnly && !slot.Available {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// Ships lists vessels.
func (s *ZoneService) Ships(ctx context.Context) ([]domain.Ship, error) {
	return s.reference.ListShips(ctx)
}

// Roles lists role reference rows.
func (s *ZoneService) Roles(ctx context.Context) ([]domain.RoleRecord, error) {
	return s.reference.ListRoles(ctx)
}

// AccessLevels lists access level reference rows.
func (s *ZoneService) AccessLevels(ctx context.Context) ([]domain.AccessLevel, error) {
	return s.reference.ListAccessLevels(ctx)
}

func (s *ZoneService) summary() map[string]ledger.ZoneSummary {
	out := make(map[string]ledger.ZoneSummary)
	for _, z := range s.ledger.Summary() {
		out[z.ZoneID] = z
	}
	return out
}

func (s *ZoneService) view(z domain.Zone, summary map[string]ledger.ZoneSummary) ZoneView {
	occupancy := summary[z.ID]
	capacity := occupancy.Capacity
	if capacity == 0 {
		capacity = z.Capacity
	}
	return ZoneView{Zone: z, Capacity: capacity, Free: occupancy.Free, Held: occupancy.Held}
}
