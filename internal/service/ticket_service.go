package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/events"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/lifecycle"
	"github.com/portyard/port-ticket-service/internal/observability"
	"github.com/portyard/port-ticket-service/internal/query"
	"github.com/portyard/port-ticket-service/internal/repository"
)

const eventFinishHandling = "finish_handling"

var containerEventFor = map[lifecycle.Event]domain.ContainerEventType{
	lifecycle.EventEnqueue:       domain.ContainerEventQueued,
	lifecycle.EventValidate:      domain.ContainerEventSlotAssigned,
	lifecycle.EventRegisterEntry: domain.ContainerEventEntered,
	lifecycle.EventComplete:      domain.ContainerEventCompleted,
	lifecycle.EventRegisterExit:  domain.ContainerEventWithdrawn,
	lifecycle.EventCancel:        domain.ContainerEventCancelled,
}

var activeStates = []domain.TicketState{
	domain.TicketStatePending,
	domain.TicketStateQueued,
	domain.TicketStateValidated,
	domain.TicketStateInProgress,
}

var monitorStates = append(append([]domain.TicketState(nil), activeStates...), domain.TicketStateCompleted)

var finishedStates = []domain.TicketState{
	domain.TicketStateCompleted,
	domain.TicketStateWithdrawn,
	domain.TicketStateCancelled,
}

// TicketService coordinates ticket workflows. Every state change runs
// through the lifecycle machine inside one critical section.
type TicketService struct {
	tickets         repository.TicketRepository
	history         repository.TicketHistoryRepository
	containers      repository.ContainerRepository
	containerEvents repository.ContainerEventRepository
	tx              repository.Transactor
	ledger          *ledger.Ledger
	machine         *lifecycle.Machine
	dispatcher      events.Dispatcher
	metrics         *observability.Metrics
	clock           clock.Clock
	logger          *zap.Logger

	mu sync.Mutex
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Tickets         repository.TicketRepository
	History         repository.TicketHistoryRepository
	Containers      repository.ContainerRepository
	ContainerEvents repository.ContainerEventRepository
	Transactor      repository.Transactor
	Ledger          *ledger.Ledger
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Clock           clock.Clock
	Logger          *zap.Logger
}

// TicketCreateInput describes ticket creation payload. ClientID is only
// honoured for administrators; clients always create for themselves.
type TicketCreateInput struct {
	ClientID    string
	ContainerID string
	Transporter string
	Driver      string
	Plate       string
	Shift       string
	ZoneID      *string
}

// TicketListInput describes a ticket list request.
type TicketListInput struct {
	Query       query.Options
	States      []domain.TicketState
	ContainerID *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tx := deps.Transactor
	if tx == nil {
		tx = repository.NoopTransactor{}
	}
	return &TicketService{
		tickets:         deps.Tickets,
		history:         deps.History,
		containers:      deps.Containers,
		containerEvents: deps.ContainerEvents,
		tx:              tx,
		ledger:          deps.Ledger,
		machine:         lifecycle.New(deps.Ledger, clk),
		dispatcher:      deps.Dispatcher,
		metrics:         deps.Metrics,
		clock:           clk,
		logger:          logger,
	}
}

// Create opens a PENDING ticket for a container.
func (s *TicketService) Create(ctx context.Context, session domain.SessionContext, input TicketCreateInput) (*domain.Ticket, error) {
	if !session.HasRole(domain.RoleClient, domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	clientID := strings.TrimSpace(input.ClientID)
	if session.IsClient() {
		clientID = session.UserID
	}
	if clientID == "" {
		return nil, domain.Invalid("client_id", "required")
	}
	if strings.TrimSpace(input.ContainerID) == "" {
		return nil, domain.Invalid("container_id", "required")
	}
	if _, err := s.containers.GetByID(ctx, input.ContainerID); err != nil {
		return nil, fmt.Errorf("load container: %w", err)
	}

	var zoneID *string
	if input.ZoneID != nil && strings.TrimSpace(*input.ZoneID) != "" {
		zone := strings.TrimSpace(*input.ZoneID)
		if !s.knownZone(zone) {
			return nil, domain.Invalid("zone_id", "unknown zone")
		}
		zoneID = &zone
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		Code:        newTicketCode(),
		ClientID:    clientID,
		ContainerID: input.ContainerID,
		Transporter: strings.TrimSpace(input.Transporter),
		Driver:      strings.TrimSpace(input.Driver),
		Plate:       strings.ToUpper(strings.TrimSpace(input.Plate)),
		Shift:       strings.TrimSpace(input.Shift),
		ZoneID:      zoneID,
		State:       domain.TicketStatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return err
		}
		if err := s.history.Create(ctx, &domain.TicketHistory{
			TicketID:  ticket.ID,
			Event:     "create",
			ToState:   ticket.State,
			ActorID:   session.UserID,
			ActorRole: session.Role,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return s.appendContainerEvent(ctx, ticket, domain.ContainerEventTicketCreated, session, now)
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("code", ticket.Code),
		zap.String("client_id", ticket.ClientID),
	)
	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, events.ActorFrom(session), now, events.TicketCreatedPayload{
		Code:        ticket.Code,
		ClientID:    ticket.ClientID,
		ContainerID: ticket.ContainerID,
		ZoneID:      ticket.ZoneID,
	}))
	return ticket, nil
}

// Enqueue moves a PENDING ticket into the turn queue.
func (s *TicketService) Enqueue(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventEnqueue, ownerOrStaff)
}

// Validate assigns a slot to a QUEUED ticket.
func (s *TicketService) Validate(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventValidate, staffOnly)
}

// RegisterEntry records the vehicle entering the terminal.
func (s *TicketService) RegisterEntry(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventRegisterEntry, staffOnly)
}

// Complete closes container handling of an IN_PROGRESS ticket.
func (s *TicketService) Complete(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventComplete, staffOnly)
}

// RegisterExit records the vehicle leaving and frees the slot.
func (s *TicketService) RegisterExit(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventRegisterExit, staffOnly)
}

// Cancel abandons a non-terminal ticket.
func (s *TicketService) Cancel(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	return s.fire(ctx, session, id, lifecycle.EventCancel, ownerOrStaff)
}

// FinishHandling marks the container load or unload of an IN_PROGRESS
// ticket as done, which unlocks Complete.
func (s *TicketService) FinishHandling(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	if !session.IsStaff() {
		return nil, domain.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.State != domain.TicketStateInProgress {
		return nil, &domain.InvalidTransitionError{From: current.State, Event: eventFinishHandling}
	}
	if current.HandlingFinishedAt != nil {
		return current, nil
	}

	next := *current
	now := s.clock.Now()
	next.HandlingFinishedAt = &now
	next.UpdatedAt = now

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Update(ctx, &next); err != nil {
			return err
		}
		return s.appendContainerEvent(ctx, &next, domain.ContainerEventHandlingFinished, session, now)
	})
	if err != nil {
		return nil, fmt.Errorf("finish handling of ticket %s: %w", id, err)
	}
	s.logger.Info("container handling finished", zap.String("ticket_id", id))
	return &next, nil
}

// Get returns one ticket. Clients only see their own.
func (s *TicketService) Get(ctx context.Context, session domain.SessionContext, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsClient() && ticket.ClientID != session.UserID {
		return nil, domain.NotFound("ticket", id)
	}
	return ticket, nil
}

// List runs the query engine over the tickets visible to session.
func (s *TicketService) List(ctx context.Context, session domain.SessionContext, input TicketListInput) (query.Result[domain.Ticket], error) {
	filter := repository.TicketFilter{States: input.States, ContainerID: input.ContainerID}
	if session.IsClient() {
		filter.ClientID = &session.UserID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return query.Result[domain.Ticket]{}, fmt.Errorf("list tickets: %w", err)
	}
	return TicketTable.Query(tickets, input.Query), nil
}

// History lists finished tickets, most recent movement first.
func (s *TicketService) History(ctx context.Context, session domain.SessionContext, opts query.Options) (query.Result[domain.Ticket], error) {
	filter := repository.TicketFilter{States: finishedStates}
	if session.IsClient() {
		filter.ClientID = &session.UserID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return query.Result[domain.Ticket]{}, fmt.Errorf("list ticket history: %w", err)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].LastMovement().After(tickets[j].LastMovement())
	})
	return TicketTable.Query(tickets, opts), nil
}

// Timeline returns the audit trail of a ticket.
func (s *TicketService) Timeline(ctx context.Context, session domain.SessionContext, id string) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list ticket timeline: %w", err)
	}
	return entries, nil
}

// Delete removes a ticket that holds no slot.
func (s *TicketService) Delete(ctx context.Context, session domain.SessionContext, id string) error {
	if !session.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if slot, held := ticket.HeldSlot(); held {
		return fmt.Errorf("delete ticket %s holding slot %s: %w", id, slot, domain.ErrSlotHeld)
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}

	s.logger.Info("ticket deleted", zap.String("ticket_id", id))
	s.publish(ctx, events.New(events.EventTicketDeleted, id, events.ActorFrom(session), s.clock.Now(), events.TicketDeletedPayload{
		Code:     ticket.Code,
		ClientID: ticket.ClientID,
	}))
	return nil
}

// MonitorTickets returns every non-terminal ticket plus completed ones.
func (s *TicketService) MonitorTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{States: monitorStates})
	if err != nil {
		return nil, fmt.Errorf("list monitor tickets: %w", err)
	}
	return tickets, nil
}

// Slots returns the ledger view of every slot.
func (s *TicketService) Slots(_ context.Context) ([]domain.Slot, error) {
	return s.ledger.Slots(), nil
}

func (s *TicketService) fire(ctx context.Context, session domain.SessionContext, id string, ev lifecycle.Event, allow func(domain.SessionContext, *domain.Ticket) error) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allow(session, current); err != nil {
		return nil, err
	}

	next := *current
	tr, err := s.machine.Fire(ctx, &next, ev)
	if err != nil {
		s.metrics.RecordTransition(string(ev), "rejected")
		s.logger.Debug("ticket transition rejected",
			zap.String("ticket_id", id),
			zap.String("state", string(current.State)),
			zap.String("event", string(ev)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.persist(ctx, session, &next, tr); err != nil {
		s.metrics.RecordTransition(string(ev), "failed")
		if revertErr := s.machine.Revert(ctx, tr); revertErr != nil {
			s.logger.Error("slot ledger revert failed",
				zap.String("ticket_id", id),
				zap.String("event", string(ev)),
				zap.Error(revertErr),
			)
		}
		return nil, fmt.Errorf("persist %s of ticket %s: %w", ev, id, err)
	}

	s.metrics.RecordTransition(string(ev), "applied")
	s.logger.Info("ticket transition",
		zap.String("ticket_id", id),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("actor_id", session.UserID),
	)
	s.publish(ctx, events.New(events.EventTicketStateChanged, id, events.ActorFrom(session), tr.At, events.TicketStateChangedPayload{
		Code:     next.Code,
		ClientID: next.ClientID,
		Event:    string(ev),
		OldState: tr.From,
		NewState: tr.To,
		SlotID:   tr.SlotID(),
	}))
	return &next, nil
}

func (s *TicketService) persist(ctx context.Context, session domain.SessionContext, t *domain.Ticket, tr lifecycle.Transition) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if tr.StateOnly() {
			if err := s.tickets.ChangeState(ctx, t.ID, t.State); err != nil {
				return err
			}
		} else if err := s.tickets.Update(ctx, t); err != nil {
			return err
		}

		if err := s.history.Create(ctx, &domain.TicketHistory{
			TicketID:  t.ID,
			Event:     string(tr.Event),
			FromState: tr.From,
			ToState:   tr.To,
			ActorID:   session.UserID,
			ActorRole: session.Role,
			SlotID:    tr.SlotID(),
			CreatedAt: tr.At,
		}); err != nil {
			return err
		}
		if err := s.relocateContainer(ctx, t, tr); err != nil {
			return err
		}
		return s.appendContainerEvent(ctx, t, containerEventFor[tr.Event], session, tr.At)
	})
}

// relocateContainer keeps the container location in step with the slot:
// a reservation parks it in the slot's zone, a release puts it in transit.
func (s *TicketService) relocateContainer(ctx context.Context, t *domain.Ticket, tr lifecycle.Transition) error {
	var location string
	switch {
	case tr.Reserved != "":
		slot, ok := s.ledger.Slot(tr.Reserved)
		if !ok {
			return nil
		}
		location = slot.ZoneID
	case tr.Released != "":
		location = domain.LocationInTransit
	default:
		return nil
	}

	container, err := s.containers.GetByID(ctx, t.ContainerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if container.Location == location {
		return nil
	}
	container.Location = location
	return s.containers.Update(ctx, container)
}

func (s *TicketService) appendContainerEvent(ctx context.Context, t *domain.Ticket, kind domain.ContainerEventType, session domain.SessionContext, at time.Time) error {
	ticketID := t.ID
	return s.containerEvents.Append(ctx, &domain.ContainerEvent{
		ContainerID: t.ContainerID,
		TicketID:    &ticketID,
		Event:       kind,
		ActorID:     session.UserID,
		CreatedAt:   at,
	})
}

func (s *TicketService) knownZone(zoneID string) bool {
	for _, z := range s.ledger.Summary() {
		if z.ZoneID == zoneID {
			return true
		}
	}
	return false
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ownerOrStaff(session domain.SessionContext, t *domain.Ticket) error {
	if session.IsStaff() {
		return nil
	}
	if session.IsClient() && t.ClientID == session.UserID {
		return nil
	}
	return domain.ErrForbidden
}

func staffOnly(session domain.SessionContext, _ *domain.Ticket) error {
	if session.IsStaff() {
		return nil
	}
	return domain.ErrForbidden
}

func newTicketCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TCK-" + strings.ToUpper(raw[:8])
}
