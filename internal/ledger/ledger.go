// Package ledger owns slot availability. No other component flips a slot's
// availability flag; everything goes through Reserve and Release.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// AvailabilityStore persists availability changes. A failed store call
// leaves the ledger untouched.
type AvailabilityStore interface {
	SetSlotAvailability(ctx context.Context, slotID string, available bool) error
}

// ZoneSummary reports occupancy of one zone.
type ZoneSummary struct {
	ZoneID   string
	Capacity int
	Free     int
	Held     int
}

type entry struct {
	slot   domain.Slot
	holder string
}

// Ledger tracks which ticket holds which slot.
type Ledger struct {
	mu     sync.Mutex
	order  []string
	slots  map[string]*entry
	store  AvailabilityStore
	logger *zap.Logger
	onMove func(zoneID string, free int)
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithStore mirrors every availability change to store.
func WithStore(store AvailabilityStore) Option {
	return func(l *Ledger) { l.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver is called with the new free count of a zone after each change.
func WithObserver(fn func(zoneID string, free int)) Option {
	return func(l *Ledger) { l.onMove = fn }
}

// New builds a ledger over slots. Every slot starts free; use Restore to
// adopt existing holdings.
func New(slots []domain.Slot, opts ...Option) *Ledger {
	l := &Ledger{
		slots:  make(map[string]*entry, len(slots)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	sorted := append([]domain.Slot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ZoneID != b.ZoneID {
			return a.ZoneID < b.ZoneID
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Tier < b.Tier
	})
	for _, s := range sorted {
		if _, dup := l.slots[s.ID]; dup {
			continue
		}
		s.Available = true
		l.slots[s.ID] = &entry{slot: s}
		l.order = append(l.order, s.ID)
	}
	return l
}

// Rebuild builds a ledger over slots and adopts the holdings of tickets.
// A slot flagged unavailable that no ticket holds stays occupied under a
// placeholder holder. Conflicting holdings are logged and skipped.
func Rebuild(slots []domain.Slot, tickets []domain.Ticket, opts ...Option) *Ledger {
	l := New(slots, opts...)
	held := make(map[string]bool)
	for _, t := range tickets {
		slot, ok := t.HeldSlot()
		if !ok {
			continue
		}
		if err := l.Restore(slot, t.ID); err != nil {
			l.logger.Warn("skipped inconsistent slot holding", zap.String("ticket_id", t.ID), zap.Error(err))
			continue
		}
		held[slot] = true
	}
	for _, s := range slots {
		if !s.Available && !held[s.ID] {
			_ = l.Restore(s.ID, OccupiedHolder(s.ID))
		}
	}
	return l
}

// OccupiedHolder names the placeholder holder of a slot that is taken by
// something other than a known ticket.
func OccupiedHolder(slotID string) string {
	return "occupied:" + slotID
}

// Restore marks slotID as held by ticketID without touching the store.
// It is used when rebuilding state and when undoing a release.
func (l *Ledger) Restore(slotID, ticketID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.slots[slotID]
	if !ok {
		return domain.NotFound("slot", slotID)
	}
	if e.holder != "" && e.holder != ticketID {
		return fmt.Errorf("restore slot %s for ticket %s: held by %s: %w", slotID, ticketID, e.holder, domain.ErrSlotHeld)
	}
	e.holder = ticketID
	e.slot.Available = false
	l.notify(e.slot.ZoneID)
	return nil
}

// Reacquire hands a just-released slot back to ticketID and persists it.
// It undoes a Release whose surrounding change could not be committed.
func (l *Ledger) Reacquire(ctx context.Context, slotID, ticketID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.slots[slotID]
	if !ok {
		return domain.NotFound("slot", slotID)
	}
	if e.holder == ticketID {
		return nil
	}
	if e.holder != "" {
		return fmt.Errorf("reacquire slot %s for ticket %s: held by %s: %w", slotID, ticketID, e.holder, domain.ErrSlotHeld)
	}
	if l.store != nil {
		if err := l.store.SetSlotAvailability(ctx, slotID, false); err != nil {
			return fmt.Errorf("persist reacquire of slot %s: %w", slotID, err)
		}
	}
	e.holder = ticketID
	e.slot.Available = false
	l.notify(e.slot.ZoneID)
	return nil
}

// Reserve assigns the first free slot, optionally limited to zoneID, to
// ticketID. It never waits: either a slot is handed out or
// ErrNoSlotAvailable is returned.
func (l *Ledger) Reserve(ctx context.Context, ticketID, zoneID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.order {
		e := l.slots[id]
		if e.holder == ticketID {
			return id, nil
		}
	}

	for _, id := range l.order {
		e := l.slots[id]
		if e.holder != "" {
			continue
		}
		if zoneID != "" && e.slot.ZoneID != zoneID {
			continue
		}
		if l.store != nil {
			if err := l.store.SetSlotAvailability(ctx, id, false); err != nil {
				return "", fmt.Errorf("persist reservation of slot %s: %w", id, err)
			}
		}
		e.holder = ticketID
		e.slot.Available = false
		l.notify(e.slot.ZoneID)
		l.logger.Debug("slot reserved", zap.String("slot_id", id), zap.String("ticket_id", ticketID))
		return id, nil
	}
	return "", domain.ErrNoSlotAvailable
}

// Release frees slotID. Releasing a free slot reports ErrAlreadyReleased
// and changes nothing.
func (l *Ledger) Release(ctx context.Context, slotID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.slots[slotID]
	if !ok {
		return domain.NotFound("slot", slotID)
	}
	if e.holder == "" {
		return domain.ErrAlreadyReleased
	}
	if l.store != nil {
		if err := l.store.SetSlotAvailability(ctx, slotID, true); err != nil {
			return fmt.Errorf("persist release of slot %s: %w", slotID, err)
		}
	}
	l.logger.Debug("slot released", zap.String("slot_id", slotID), zap.String("ticket_id", e.holder))
	e.holder = ""
	e.slot.Available = true
	l.notify(e.slot.ZoneID)
	return nil
}

// IsAvailable reports whether slotID exists and is free.
func (l *Ledger) IsAvailable(slotID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.slots[slotID]
	return ok && e.holder == ""
}

// HolderOf returns the ticket holding slotID.
func (l *Ledger) HolderOf(slotID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.slots[slotID]
	if !ok || e.holder == "" {
		return "", false
	}
	return e.holder, true
}

// Slot returns the current view of slotID.
func (l *Ledger) Slot(slotID string) (domain.Slot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.slots[slotID]
	if !ok {
		return domain.Slot{}, false
	}
	return e.slot, true
}

// Slots returns every slot in allocation order.
func (l *Ledger) Slots() []domain.Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Slot, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.slots[id].slot)
	}
	return out
}

// Available counts free slots, in zoneID or overall when empty.
func (l *Ledger) Available(zoneID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countFree(zoneID)
}

// Held counts slots currently held.
func (l *Ledger) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	held := 0
	for _, e := range l.slots {
		if e.holder != "" {
			held++
		}
	}
	return held
}

// Holdings returns slot id → ticket id for every held slot.
func (l *Ledger) Holdings() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string)
	for id, e := range l.slots {
		if e.holder != "" {
			out[id] = e.holder
		}
	}
	return out
}

// Summary reports occupancy per zone, ordered by zone id.
func (l *Ledger) Summary() []ZoneSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	byZone := map[string]*ZoneSummary{}
	var zones []string
	for _, id := range l.order {
		e := l.slots[id]
		s, ok := byZone[e.slot.ZoneID]
		if !ok {
			s = &ZoneSummary{ZoneID: e.slot.ZoneID}
			byZone[e.slot.ZoneID] = s
			zones = append(zones, e.slot.ZoneID)
		}
		s.Capacity++
		if e.holder == "" {
			s.Free++
		} else {
			s.Held++
		}
	}
	out := make([]ZoneSummary, 0, len(zones))
	for _, z := range zones {
		out = append(out, *byZone[z])
	}
	return out
}

func (l *Ledger) countFree(zoneID string) int {
	free := 0
	for _, e := range l.slots {
		if e.holder != "" {
			continue
		}
		if zoneID != "" && e.slot.ZoneID != zoneID {
			continue
		}
		free++
	}
	return free
}

func (l *Ledger) notify(zoneID string) {
	if l.onMove == nil {
		return
	}
	l.onMove(zoneID, l.countFree(zoneID))
}
