package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/query"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// ContainerInput carries the fields of a new container.
type ContainerInput struct {
	Code       string
	Type       string
	Dimensions string
	WeightKg   float64
	ShipID     *string
}

// ContainerUpdateInput carries the fields to change; nil means unchanged.
type ContainerUpdateInput struct {
	Code       *string
	Type       *string
	Dimensions *string
	WeightKg   *float64
	ShipID     *string
	Location   *string
}

// ContainerDetail is the quick-query view of one container.
type ContainerDetail struct {
	Container domain.Container
	Events    []domain.ContainerEvent
	Ticket    *domain.Ticket
}

// ContainerService manages containers and their event log.
type ContainerService struct {
	containers repository.ContainerRepository
	events     repository.ContainerEventRepository
	tickets    repository.TicketRepository
	reference  repository.ReferenceRepository
	logger     *zap.Logger
}

// NewContainerService builds the service.
func NewContainerService(containers repository.ContainerRepository, events repository.ContainerEventRepository, tickets repository.TicketRepository, reference repository.ReferenceRepository, logger *zap.Logger) *ContainerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContainerService{
		containers: containers,
		events:     events,
		tickets:    tickets,
		reference:  reference,
		logger:     logger,
	}
}

// List runs the query engine over every container.
func (s *ContainerService) List(ctx context.Context, opts query.Options) (query.Result[domain.Container], error) {
	containers, err := s.containers.List(ctx)
	if err != nil {
		return query.Result[domain.Container]{}, fmt.Errorf("list containers: %w", err)
	}
	return ContainerTable.Query(containers, opts), nil
}

// Get returns a container with its event log and the ticket currently
// moving it, or the latest one when none is active.
func (s *ContainerService) Get(ctx context.Context, session domain.SessionContext, id string) (*ContainerDetail, error) {
	if !session.IsStaff() {
		return nil, domain.ErrForbidden
	}
	container, err := s.containers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log, err := s.events.ListByContainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list container events: %w", err)
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{ContainerID: &id})
	if err != nil {
		return nil, fmt.Errorf("list container tickets: %w", err)
	}
	return &ContainerDetail{Container: *container, Events: log, Ticket: relatedTicket(tickets)}, nil
}

// Create registers a container in transit. Admin only.
func (s *ContainerService) Create(ctx context.Context, session domain.SessionContext, input ContainerInput) (*domain.Container, error) {
	if !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, domain.Invalid("code", "required")
	}
	if input.WeightKg < 0 {
		return nil, domain.Invalid("weight_kg", "must not be negative")
	}
	container := &domain.Container{
		Code:       code,
		Type:       strings.TrimSpace(input.Type),
		Dimensions: strings.TrimSpace(input.Dimensions),
		WeightKg:   input.WeightKg,
		Location:   domain.LocationInTransit,
	}
	if err := s.attachShip(ctx, container, input.ShipID); err != nil {
		return nil, err
	}
	if err := s.containers.Create(ctx, container); err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	s.logger.Info("container created", zap.String("container_id", container.ID), zap.String("code", container.Code))
	return container, nil
}

// Update changes a container. Admin only.
func (s *ContainerService) Update(ctx context.Context, session domain.SessionContext, id string, input ContainerUpdateInput) (*domain.Container, error) {
	if !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	container, err := s.containers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*input.Code))
		if code == "" {
			return nil, domain.Invalid("code", "required")
		}
		container.Code = code
	}
	if input.Type != nil {
		container.Type = strings.TrimSpace(*input.Type)
	}
	if input.Dimensions != nil {
		container.Dimensions = strings.TrimSpace(*input.Dimensions)
	}
	if input.WeightKg != nil {
		if *input.WeightKg < 0 {
			return nil, domain.Invalid("weight_kg", "must not be negative")
		}
		container.WeightKg = *input.WeightKg
	}
	if input.Location != nil {
		container.Location = strings.TrimSpace(*input.Location)
	}
	if input.ShipID != nil {
		if err := s.attachShip(ctx, container, input.ShipID); err != nil {
			return nil, err
		}
	}
	if err := s.containers.Update(ctx, container); err != nil {
		return nil, fmt.Errorf("update container: %w", err)
	}
	return container, nil
}

// Delete removes a container no active ticket refers to. Admin only.
func (s *ContainerService) Delete(ctx context.Context, session domain.SessionContext, id string) error {
	if !session.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	active, err := s.tickets.List(ctx, repository.TicketFilter{ContainerID: &id, States: activeStates})
	if err != nil {
		return fmt.Errorf("list container tickets: %w", err)
	}
	if len(active) > 0 {
		return domain.Invalid("id", "container has active tickets")
	}
	if err := s.containers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	s.logger.Info("container deleted", zap.String("container_id", id))
	return nil
}

func (s *ContainerService) attachShip(ctx context.Context, container *domain.Container, shipID *string) error {
	if shipID == nil || strings.TrimSpace(*shipID) == "" {
		container.ShipID = nil
		container.ShippingLine = ""
		return nil
	}
	ship, err := s.reference.GetShip(ctx, strings.TrimSpace(*shipID))
	if err != nil {
		return fmt.Errorf("load ship: %w", err)
	}
	id := ship.ID
	container.ShipID = &id
	container.ShippingLine = ship.ShippingLine
	return nil
}

func relatedTicket(tickets []domain.Ticket) *domain.Ticket {
	var latest *domain.Ticket
	for i := range tickets {
		t := &tickets[i]
		if !t.State.IsTerminal() {
			return t
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	return latest
}
