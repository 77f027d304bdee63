package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStatePending    TicketState = "PENDING"
	TicketStateQueued     TicketState = "QUEUED"
	TicketStateValidated  TicketState = "VALIDATED"
	TicketStateInProgress TicketState = "IN_PROGRESS"
	TicketStateCompleted  TicketState = "COMPLETED"
	TicketStateWithdrawn  TicketState = "WITHDRAWN"
	TicketStateCancelled  TicketState = "CANCELLED"
)

// TicketStates lists every state in lifecycle order.
var TicketStates = []TicketState{
	TicketStatePending,
	TicketStateQueued,
	TicketStateValidated,
	TicketStateInProgress,
	TicketStateCompleted,
	TicketStateWithdrawn,
	TicketStateCancelled,
}

// Valid reports whether s is a known state.
func (s TicketState) Valid() bool {
	for _, known := range TicketStates {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no cancel is possible from s.
// COMPLETED still accepts register_exit.
func (s TicketState) IsTerminal() bool {
	switch s {
	case TicketStateCompleted, TicketStateWithdrawn, TicketStateCancelled:
		return true
	}
	return false
}

// HoldsSlot reports whether a ticket in state s occupies a physical slot.
func (s TicketState) HoldsSlot() bool {
	switch s {
	case TicketStateValidated, TicketStateInProgress, TicketStateCompleted:
		return true
	}
	return false
}

// Ticket is a request to move a container through the port.
type Ticket struct {
	ID                 string
	Code               string
	ClientID           string
	ContainerID        string
	Transporter        string
	Driver             string
	Plate              string
	Shift              string
	ZoneID             *string
	State              TicketState
	SlotID             *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	EnteredAt          *time.Time
	HandlingFinishedAt *time.Time
	CompletedAt        *time.Time
	ExitedAt           *time.Time
}

// HeldSlot returns the slot id when one is assigned.
func (t *Ticket) HeldSlot() (string, bool) {
	if t.SlotID == nil || *t.SlotID == "" {
		return "", false
	}
	return *t.SlotID, true
}

// LastMovement returns the most recent of exit and entry timestamps,
// falling back to creation time.
func (t *Ticket) LastMovement() time.Time {
	if t.ExitedAt != nil {
		return *t.ExitedAt
	}
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	if t.EnteredAt != nil {
		return *t.EnteredAt
	}
	return t.CreatedAt
}
