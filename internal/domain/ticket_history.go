package domain

import "time"

// TicketHistory is an immutable audit entry written for every transition.
type TicketHistory struct {
	ID        string
	TicketID  string
	Event     string
	FromState TicketState
	ToState   TicketState
	ActorID   string
	ActorRole Role
	SlotID    *string
	CreatedAt time.Time
}
