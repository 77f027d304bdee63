package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/query"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// FleetInput carries the fields of a vehicle.
type FleetInput struct {
	Plate       string
	Driver      string
	VehicleType string
	Status      domain.VehicleStatus
}

// FleetUpdateInput carries the fields to change; nil means unchanged.
type FleetUpdateInput struct {
	Plate       *string
	Driver      *string
	VehicleType *string
	Status      *domain.VehicleStatus
}

// FleetService manages the trucks of a client.
type FleetService struct {
	fleet repository.FleetRepository
}

// NewFleetService builds the service.
func NewFleetService(fleet repository.FleetRepository) *FleetService {
	return &FleetService{fleet: fleet}
}

// List returns the vehicles of clientID. Clients always get their own.
func (s *FleetService) List(ctx context.Context, session domain.SessionContext, clientID string, opts query.Options) (query.Result[domain.FleetVehicle], error) {
	if session.IsClient() || clientID == "" {
		clientID = session.UserID
	}
	vehicles, err := s.fleet.ListByClient(ctx, clientID)
	if err != nil {
		return query.Result[domain.FleetVehicle]{}, fmt.Errorf("list fleet: %w", err)
	}
	return FleetTable.Query(vehicles, opts), nil
}

// Create adds a vehicle to the caller's fleet.
func (s *FleetService) Create(ctx context.Context, session domain.SessionContext, input FleetInput) (*domain.FleetVehicle, error) {
	if !session.HasRole(domain.RoleClient) {
		return nil, domain.ErrForbidden
	}
	plate := strings.ToUpper(strings.TrimSpace(input.Plate))
	if plate == "" {
		return nil, domain.Invalid("plate", "required")
	}
	status := input.Status
	if status == "" {
		status = domain.VehicleStatusActive
	}
	if !validVehicleStatus(status) {
		return nil, domain.Invalid("status", "unknown status")
	}
	vehicle := &domain.FleetVehicle{
		ClientID:    session.UserID,
		Plate:       plate,
		Driver:      strings.TrimSpace(input.Driver),
		VehicleType: strings.TrimSpace(input.VehicleType),
		Status:      status,
	}
	if err := s.fleet.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return vehicle, nil
}

// Update changes a vehicle of the caller, or any vehicle for admins.
func (s *FleetService) Update(ctx context.Context, session domain.SessionContext, id string, input FleetUpdateInput) (*domain.FleetVehicle, error) {
	vehicle, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if input.Plate != nil {
		plate := strings.ToUpper(strings.TrimSpace(*input.Plate))
		if plate == "" {
			return nil, domain.Invalid("plate", "required")
		}
		vehicle.Plate = plate
	}
	if input.Driver != nil {
		vehicle.Driver = strings.TrimSpace(*input.Driver)
	}
	if input.VehicleType != nil {
		vehicle.VehicleType = strings.TrimSpace(*input.VehicleType)
	}
	if input.Status != nil {
		if !validVehicleStatus(*input.Status) {
			return nil, domain.Invalid("status", "unknown status")
		}
		vehicle.Status = *input.Status
	}
	if err := s.fleet.Update(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return vehicle, nil
}

// Delete removes a vehicle of the caller, or any vehicle for admins.
func (s *FleetService) Delete(ctx context.Context, session domain.SessionContext, id string) error {
	if _, err := s.owned(ctx, session, id); err != nil {
		return err
	}
	if err := s.fleet.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

func (s *FleetService) owned(ctx context.Context, session domain.SessionContext, id string) (*domain.FleetVehicle, error) {
	vehicle, err := s.fleet.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.HasRole(domain.RoleAdmin) {
		return vehicle, nil
	}
	if vehicle.ClientID != session.UserID {
		return nil, domain.NotFound("vehicle", id)
	}
	return vehicle, nil
}

func validVehicleStatus(s domain.VehicleStatus) bool {
	return s == domain.VehicleStatusActive || s == domain.VehicleStatusInactive
}
