package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/events"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// DefaultNotificationLimit caps a notification listing.
const DefaultNotificationLimit = 50

var stateMessages = map[domain.TicketState]string{
	domain.TicketStateQueued:     "Ticket %s is queued for validation",
	domain.TicketStateValidated:  "Ticket %s was validated, a slot is reserved",
	domain.TicketStateInProgress: "Vehicle of ticket %s entered the terminal",
	domain.TicketStateCompleted:  "Container handling of ticket %s is complete",
	domain.TicketStateWithdrawn:  "Vehicle of ticket %s left the terminal",
	domain.TicketStateCancelled:  "Ticket %s was cancelled",
}

// NotificationService turns ticket events into user notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      repository.NotificationRepository
	users      repository.UserRepository
	clock      clock.Clock
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, store repository.NotificationRepository, users repository.UserRepository, clk clock.Clock, logger *zap.Logger) *NotificationService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		store:      store,
		users:      users,
		clock:      clk,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStateChanged, n.handleTicketStateChanged)
}

// List returns the caller's latest notifications.
func (n *NotificationService) List(ctx context.Context, session domain.SessionContext, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > DefaultNotificationLimit {
		limit = DefaultNotificationLimit
	}
	return n.store.ListByUser(ctx, session.UserID, limit)
}

// Unread counts the caller's unread notifications among the latest ones.
func (n *NotificationService) Unread(ctx context.Context, session domain.SessionContext) (int, error) {
	items, err := n.List(ctx, session, DefaultNotificationLimit)
	if err != nil {
		return 0, err
	}
	unread := 0
	for _, item := range items {
		if !item.Read {
			unread++
		}
	}
	return unread, nil
}

// MarkRead flags one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, session domain.SessionContext, id string) error {
	return n.store.MarkRead(ctx, session.UserID, id)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	return n.notify(ctx, payload.ClientID, event.TicketID, fmt.Sprintf("Ticket %s was created", payload.Code))
}

func (n *NotificationService) handleTicketStateChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStateChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	format, ok := stateMessages[payload.NewState]
	if !ok {
		return nil
	}
	message := fmt.Sprintf(format, payload.Code)
	if err := n.notify(ctx, payload.ClientID, event.TicketID, message); err != nil {
		return err
	}
	if payload.NewState != domain.TicketStateQueued {
		return nil
	}

	operators, err := n.users.ListByRole(ctx, domain.RoleOperator)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}
	for _, op := range operators {
		if !op.Active {
			continue
		}
		if err := n.notify(ctx, op.ID, event.TicketID, message); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) notify(ctx context.Context, userID, ticketID, message string) error {
	if userID == "" {
		return nil
	}
	id := ticketID
	item := &domain.Notification{
		UserID:    userID,
		TicketID:  &id,
		Message:   message,
		CreatedAt: n.clock.Now(),
	}
	if err := n.store.Create(ctx, item); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	n.logger.Debug("notification stored",
		zap.String("user_id", userID),
		zap.String("ticket_id", ticketID),
	)
	return nil
}
