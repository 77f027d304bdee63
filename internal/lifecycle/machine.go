// Package lifecycle holds the ticket transition table. It is the only place
// where a ticket state change is legalized.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/domain"
)

// Event is an action requested on a ticket.
type Event string

const (
	EventEnqueue       Event = "enqueue"
	EventValidate      Event = "validate"
	EventRegisterEntry Event = "register_entry"
	EventComplete      Event = "complete"
	EventRegisterExit  Event = "register_exit"
	EventCancel        Event = "cancel"
)

// Events lists every event.
var Events = []Event{
	EventEnqueue,
	EventValidate,
	EventRegisterEntry,
	EventComplete,
	EventRegisterExit,
	EventCancel,
}

var transitions = map[domain.TicketState]map[Event]domain.TicketState{
	domain.TicketStatePending: {
		EventEnqueue: domain.TicketStateQueued,
		EventCancel:  domain.TicketStateCancelled,
	},
	domain.TicketStateQueued: {
		EventValidate: domain.TicketStateValidated,
		EventCancel:   domain.TicketStateCancelled,
	},
	domain.TicketStateValidated: {
		EventRegisterEntry: domain.TicketStateInProgress,
		EventCancel:        domain.TicketStateCancelled,
	},
	domain.TicketStateInProgress: {
		EventComplete: domain.TicketStateCompleted,
		EventCancel:   domain.TicketStateCancelled,
	},
	domain.TicketStateCompleted: {
		EventRegisterExit: domain.TicketStateWithdrawn,
	},
}

// Target returns the state reached by firing ev from from.
func Target(from domain.TicketState, ev Event) (domain.TicketState, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Allowed lists the events accepted in state from, in canonical order.
func Allowed(from domain.TicketState) []Event {
	var out []Event
	for _, ev := range Events {
		if _, ok := transitions[from][ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// SlotLedger is the part of the slot ledger the machine relies on.
type SlotLedger interface {
	Reserve(ctx context.Context, ticketID, zoneID string) (string, error)
	Release(ctx context.Context, slotID string) error
	Reacquire(ctx context.Context, slotID, ticketID string) error
}

// Transition records one applied state change.
type Transition struct {
	TicketID string
	Event    Event
	From     domain.TicketState
	To       domain.TicketState
	Reserved string
	Released string
	At       time.Time
}

// StateOnly reports whether nothing but the state column changed.
func (t Transition) StateOnly() bool {
	if t.Reserved != "" || t.Released != "" {
		return false
	}
	return t.Event == EventEnqueue || t.Event == EventCancel
}

// SlotID returns the slot touched by the transition, if any.
func (t Transition) SlotID() *string {
	switch {
	case t.Reserved != "":
		id := t.Reserved
		return &id
	case t.Released != "":
		id := t.Released
		return &id
	}
	return nil
}

// Machine applies transitions and keeps the ledger in step with them.
type Machine struct {
	ledger SlotLedger
	clock  clock.Clock
}

// New builds a Machine.
func New(ledger SlotLedger, clk clock.Clock) *Machine {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Machine{ledger: ledger, clock: clk}
}

// Fire applies ev to t in place. On error t and the ledger are unchanged.
func (m *Machine) Fire(ctx context.Context, t *domain.Ticket, ev Event) (Transition, error) {
	to, ok := Target(t.State, ev)
	if !ok {
		if ev == EventRegisterExit && t.State == domain.TicketStateWithdrawn {
			return Transition{}, domain.ErrAlreadyReleased
		}
		return Transition{}, &domain.InvalidTransitionError{From: t.State, Event: string(ev)}
	}

	now := m.clock.Now()
	tr := Transition{TicketID: t.ID, Event: ev, From: t.State, To: to, At: now}

	switch ev {
	case EventValidate:
		zone := ""
		if t.ZoneID != nil {
			zone = *t.ZoneID
		}
		slot, err := m.ledger.Reserve(ctx, t.ID, zone)
		if err != nil {
			return Transition{}, err
		}
		tr.Reserved = slot
		t.SlotID = &slot
	case EventRegisterEntry:
		if t.EnteredAt != nil {
			return Transition{}, domain.ErrVehicleAlreadyEntered
		}
		t.EnteredAt = &now
	case EventComplete:
		if t.HandlingFinishedAt == nil {
			return Transition{}, domain.ErrHandlingPending
		}
		t.CompletedAt = &now
	case EventRegisterExit:
		slot, held := t.HeldSlot()
		if !held {
			return Transition{}, domain.ErrAlreadyReleased
		}
		if err := m.ledger.Release(ctx, slot); err != nil {
			return Transition{}, err
		}
		tr.Released = slot
		t.SlotID = nil
		t.ExitedAt = &now
	case EventCancel:
		if slot, held := t.HeldSlot(); held {
			err := m.ledger.Release(ctx, slot)
			switch {
			case err == nil:
				tr.Released = slot
			case errors.Is(err, domain.ErrAlreadyReleased):
			default:
				return Transition{}, err
			}
			t.SlotID = nil
		}
	}

	t.State = to
	t.UpdatedAt = now
	return tr, nil
}

// Revert undoes the ledger side of tr. Callers use it when the new ticket
// state could not be persisted.
func (m *Machine) Revert(ctx context.Context, tr Transition) error {
	if tr.Reserved != "" {
		if err := m.ledger.Release(ctx, tr.Reserved); err != nil {
			return fmt.Errorf("revert reservation of slot %s: %w", tr.Reserved, err)
		}
	}
	if tr.Released != "" {
		if err := m.ledger.Reacquire(ctx, tr.Released, tr.TicketID); err != nil {
			return fmt.Errorf("revert release of slot %s: %w", tr.Released, err)
		}
	}
	return nil
}
