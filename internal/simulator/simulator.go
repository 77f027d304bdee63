// Package simulator advances a working copy of the active turn queue on a
// timer, for the operator monitor. It never writes back to storage.
package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/lifecycle"
)

const (
	DefaultStepInterval  = 8 * time.Second
	DefaultClockInterval = time.Second
	actorID              = "simulator"
)

// ErrRunning is returned by Run when the simulator is already running.
var ErrRunning = errors.New("simulator already running")

// RandomSource picks an index in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// NewRandomSource returns a RandomSource seeded with seed.
func NewRandomSource(seed int64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Source provides the authoritative state a refresh starts from.
// MonitorTickets returns every non-terminal ticket plus completed ones.
type Source interface {
	MonitorTickets(ctx context.Context) ([]domain.Ticket, error)
	Slots(ctx context.Context) ([]domain.Slot, error)
}

// Advance describes one simulated transition.
type Advance struct {
	TicketID string
	Code     string
	Event    lifecycle.Event
	From     domain.TicketState
	To       domain.TicketState
	SlotID   string
	At       time.Time
}

// Snapshot is the monitor view of the working set.
type Snapshot struct {
	Tickets   []domain.Ticket
	Counts    map[domain.TicketState]int
	FreeSlots int
	Now       time.Time
	Refreshed time.Time
	Last      *Advance
}

// Simulator owns a private ticket working set and slot ledger.
type Simulator struct {
	source        Source
	random        RandomSource
	clock         clock.Clock
	logger        *zap.Logger
	stepInterval  time.Duration
	clockInterval time.Duration
	onStep        func(result string)

	mu        sync.Mutex
	tickets   []domain.Ticket
	ledger    *ledger.Ledger
	machine   *lifecycle.Machine
	now       time.Time
	refreshed time.Time
	last      *Advance

	runMu sync.Mutex
	stop  context.CancelFunc
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRandom replaces the random source.
func WithRandom(r RandomSource) Option {
	return func(s *Simulator) { s.random = r }
}

// WithClock replaces the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIntervals sets the step and clock periods. Non-positive values keep the defaults.
func WithIntervals(step, tick time.Duration) Option {
	return func(s *Simulator) {
		if step > 0 {
			s.stepInterval = step
		}
		if tick > 0 {
			s.clockInterval = tick
		}
	}
}

// WithStepObserver is told the outcome of every step: advanced, idle or failed.
func WithStepObserver(fn func(result string)) Option {
	return func(s *Simulator) { s.onStep = fn }
}

// New builds a Simulator. Call Refresh or Run before Step.
func New(source Source, opts ...Option) *Simulator {
	s := &Simulator{
		source:        source,
		clock:         clock.NewSystem(),
		logger:        zap.NewNop(),
		stepInterval:  DefaultStepInterval,
		clockInterval: DefaultClockInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.random == nil {
		s.random = NewRandomSource(s.clock.Now().UnixNano())
	}
	s.ledger = ledger.New(nil)
	s.machine = lifecycle.New(s.ledger, s.clock)
	s.now = s.clock.Now()
	return s
}

// Refresh discards the working set and reloads it from the source.
func (s *Simulator) Refresh(ctx context.Context) error {
	tickets, err := s.source.MonitorTickets(ctx)
	if err != nil {
		return err
	}
	slots, err := s.source.Slots(ctx)
	if err != nil {
		return err
	}

	active := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.State.IsTerminal() && t.State != domain.TicketStateCompleted {
			continue
		}
		active = append(active, t)
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})

	l := ledger.Rebuild(slots, active, ledger.WithLogger(s.logger))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = active
	s.ledger = l
	s.machine = lifecycle.New(l, s.clock)
	s.refreshed = s.clock.Now()
	s.now = s.refreshed
	s.last = nil
	return nil
}

// Step advances one randomly chosen QUEUED or VALIDATED ticket by one
// state. Completed tickets stay in the working set for the counts only. It reports false when nothing could move.
func (s *Simulator) Step(ctx context.Context) (Advance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []int
	for i, t := range s.tickets {
		if t.State == domain.TicketStateQueued || t.State == domain.TicketStateValidated {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		s.observe("idle")
		return Advance{}, false, nil
	}

	idx := candidates[s.random.Intn(len(candidates))]
	ticket := s.tickets[idx]
	ev := lifecycle.EventValidate
	if ticket.State == domain.TicketStateValidated {
		ev = lifecycle.EventRegisterEntry
	}

	tr, err := s.machine.Fire(ctx, &ticket, ev)
	if err != nil {
		s.observe("failed")
		s.logger.Debug("simulated transition rejected",
			zap.String("ticket_id", ticket.ID),
			zap.String("event", string(ev)),
			zap.Error(err),
		)
		return Advance{}, false, err
	}
	s.tickets[idx] = ticket

	adv := Advance{
		TicketID: ticket.ID,
		Code:     ticket.Code,
		Event:    ev,
		From:     tr.From,
		To:       tr.To,
		SlotID:   tr.Reserved,
		At:       tr.At,
	}
	s.last = &adv
	s.observe("advanced")
	s.logger.Info("simulated transition",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("actor", actorID),
	)
	return adv, true, nil
}

// Snapshot returns a copy of the working set.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Tickets:   append([]domain.Ticket(nil), s.tickets...),
		Counts:    make(map[domain.TicketState]int),
		Now:       s.now,
		Refreshed: s.refreshed,
	}
	if s.ledger != nil {
		snap.FreeSlots = s.ledger.Available("")
	}
	for _, t := range s.tickets {
		snap.Counts[t.State]++
	}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	return snap
}

// Run refreshes the working set and then drives the step and clock tasks
// until ctx is cancelled or Stop is called.
func (s *Simulator) Run(ctx context.Context) error {
	s.runMu.Lock()
	if s.stop != nil {
		s.runMu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		s.stop = nil
		s.runMu.Unlock()
		cancel()
	}()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("simulator initial refresh failed", zap.Error(err))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(ctx, s.stepInterval, func() {
			if _, _, err := s.Step(ctx); err != nil && !errors.Is(err, domain.ErrNoSlotAvailable) {
				s.logger.Warn("simulator step failed", zap.Error(err))
			}
		})
	}()
	go func() {
		defer wg.Done()
		every(ctx, s.clockInterval, s.tick)
	}()
	wg.Wait()
	return nil
}

// Stop ends a running Run. It is a no-op otherwise.
func (s *Simulator) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.stop != nil {
		s.stop()
	}
}

func (s *Simulator) tick() {
	now := s.clock.Now()
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Simulator) observe(result string) {
	if s.onStep != nil {
		s.onStep(result)
	}
}

func every(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
