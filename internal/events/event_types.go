package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStateChanged EventType = "ticket_state_changed"
	EventTicketDeleted      EventType = "ticket_deleted"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom converts a session into an event actor.
func ActorFrom(session domain.SessionContext) Actor {
	return Actor{UserID: session.UserID, Role: session.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, ticketID string, actor Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code        string  `json:"code"`
	ClientID    string  `json:"client_id"`
	ContainerID string  `json:"container_id"`
	ZoneID      *string `json:"zone_id,omitempty"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	Code     string             `json:"code"`
	ClientID string             `json:"client_id"`
	Event    string             `json:"event"`
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
	SlotID   *string            `json:"slot_id,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Code     string `json:"code"`
	ClientID string `json:"client_id"`
}
