package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/lifecycle"
)

var epoch = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type scriptedRandom struct {
	mu    sync.Mutex
	picks []int
	asked []int
}

func (r *scriptedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, n)
	if len(r.picks) == 0 {
		return 0
	}
	p := r.picks[0]
	r.picks = r.picks[1:]
	return p % n
}

type fakeSource struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	slots   []domain.Slot
	err     error
	loads   int
}

func (f *fakeSource) MonitorTickets(context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Ticket(nil), f.tickets...), nil
}

func (f *fakeSource) Slots(context.Context) ([]domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Slot(nil), f.slots...), nil
}

func ticket(id string, state domain.TicketState, minute int) domain.Ticket {
	return domain.Ticket{ID: id, Code: "TCK-" + id, State: state, CreatedAt: epoch.Add(time.Duration(minute) * time.Minute)}
}

func slotGrid(n int) []domain.Slot {
	out := make([]domain.Slot, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Slot{ID: fmt.Sprintf("A-%d", i), ZoneID: "A", Row: 1, Column: i, Tier: 1, Available: true})
	}
	return out
}

func TestSimulator_StepFollowsScriptedPicks(t *testing.T) {
	src := &fakeSource{
		tickets: []domain.Ticket{
			ticket("c", domain.TicketStateQueued, 3),
			ticket("a", domain.TicketStateQueued, 1),
			ticket("p", domain.TicketStatePending, 0),
			ticket("b", domain.TicketStateValidated, 2),
		},
		slots: slotGrid(3),
	}
	slot := "A-3"
	src.tickets[3].SlotID = &slot
	src.slots[2].Available = false

	rnd := &scriptedRandom{picks: []int{1, 0, 1}}
	sim := New(src, WithRandom(rnd), WithClock(clock.NewFixed(epoch)))
	require.NoError(t, sim.Refresh(context.Background()))

	// candidates in creation order: a(QUEUED), b(VALIDATED), c(QUEUED)
	adv, moved, err := sim.Step(context.Background())
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, "b", adv.TicketID)
	assert.Equal(t, lifecycle.EventRegisterEntry, adv.Event)
	assert.Equal(t, domain.TicketStateInProgress, adv.To)

	adv, moved, err = sim.Step(context.Background())
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, "a", adv.TicketID)
	assert.Equal(t, domain.TicketStateValidated, adv.To)
	assert.Equal(t, "A-1", adv.SlotID)

	// candidates now: a(VALIDATED), c(QUEUED)
	adv, _, err = sim.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c", adv.TicketID)
	assert.Equal(t, "A-2", adv.SlotID)

	assert.Equal(t, []int{3, 2, 2}, rnd.asked)

	snap := sim.Snapshot()
	assert.Equal(t, 1, snap.Counts[domain.TicketStatePending])
	assert.Equal(t, 2, snap.Counts[domain.TicketStateValidated])
	assert.Equal(t, 1, snap.Counts[domain.TicketStateInProgress])
	assert.Equal(t, 0, snap.FreeSlots)
	require.NotNil(t, snap.Last)
	assert.Equal(t, "c", snap.Last.TicketID)
}

func TestSimulator_NeverAdvancesPastInProgress(t *testing.T) {
	src := &fakeSource{
		tickets: []domain.Ticket{ticket("a", domain.TicketStateQueued, 0)},
		slots:   slotGrid(1),
	}
	sim := New(src, WithRandom(&scriptedRandom{}), WithClock(clock.NewFixed(epoch)))
	require.NoError(t, sim.Refresh(context.Background()))

	for i := 0; i < 5; i++ {
		_, _, err := sim.Step(context.Background())
		require.NoError(t, err)
	}

	snap := sim.Snapshot()
	require.Len(t, snap.Tickets, 1)
	assert.Equal(t, domain.TicketStateInProgress, snap.Tickets[0].State)
	_, moved, err := sim.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestSimulator_NoSlotKeepsTicketQueued(t *testing.T) {
	grid := slotGrid(1)
	grid[0].Available = false
	src := &fakeSource{
		tickets: []domain.Ticket{ticket("a", domain.TicketStateQueued, 0)},
		slots:   grid,
	}
	sim := New(src, WithRandom(&scriptedRandom{}), WithClock(clock.NewFixed(epoch)))
	require.NoError(t, sim.Refresh(context.Background()))

	_, moved, err := sim.Step(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSlotAvailable)
	assert.False(t, moved)
	assert.Equal(t, domain.TicketStateQueued, sim.Snapshot().Tickets[0].State)
}

func TestSimulator_RefreshDiscardsDrift(t *testing.T) {
	src := &fakeSource{
		tickets: []domain.Ticket{
			ticket("a", domain.TicketStateQueued, 0),
			ticket("done", domain.TicketStateCompleted, 1),
			ticket("gone", domain.TicketStateCancelled, 2),
		},
		slots: slotGrid(2),
	}
	sim := New(src, WithRandom(&scriptedRandom{}), WithClock(clock.NewFixed(epoch)))
	require.NoError(t, sim.Refresh(context.Background()))
	first := sim.Snapshot()
	require.Len(t, first.Tickets, 2, "cancelled tickets are not part of the working set")
	assert.Equal(t, 1, first.Counts[domain.TicketStateCompleted])
	assert.Equal(t, 1, first.Counts[domain.TicketStateQueued])

	_, _, err := sim.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sim.Snapshot().FreeSlots)

	require.NoError(t, sim.Refresh(context.Background()))
	snap := sim.Snapshot()
	assert.Equal(t, domain.TicketStateQueued, snap.Tickets[0].State)
	assert.Equal(t, 2, snap.FreeSlots)
	assert.Equal(t, 1, snap.Counts[domain.TicketStateCompleted])
	assert.Nil(t, snap.Last)
}

func TestSimulator_RefreshErrorKeepsWorkingSet(t *testing.T) {
	src := &fakeSource{tickets: []domain.Ticket{ticket("a", domain.TicketStateQueued, 0)}, slots: slotGrid(1)}
	sim := New(src, WithClock(clock.NewFixed(epoch)))
	require.NoError(t, sim.Refresh(context.Background()))

	src.err = errors.New("upstream down")
	require.Error(t, sim.Refresh(context.Background()))
	assert.Len(t, sim.Snapshot().Tickets, 1)
}

func TestSimulator_StepObserver(t *testing.T) {
	var results []string
	src := &fakeSource{tickets: []domain.Ticket{ticket("a", domain.TicketStatePending, 0)}}
	sim := New(src, WithStepObserver(func(r string) { results = append(results, r) }))
	require.NoError(t, sim.Refresh(context.Background()))

	_, moved, err := sim.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, []string{"idle"}, results)
}

func TestSimulator_RunStepsUntilStopped(t *testing.T) {
	src := &fakeSource{
		tickets: []domain.Ticket{ticket("a", domain.TicketStateQueued, 0)},
		slots:   slotGrid(1),
	}
	clk := clock.NewManual(epoch)
	sim := New(src,
		WithRandom(&scriptedRandom{}),
		WithClock(clk),
		WithIntervals(5*time.Millisecond, 2*time.Millisecond),
	)

	done := make(chan error, 1)
	go func() { done <- sim.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		snap := sim.Snapshot()
		return len(snap.Tickets) == 1 && snap.Tickets[0].State == domain.TicketStateInProgress
	}, time.Second, 5*time.Millisecond)

	clk.Advance(time.Hour)
	require.Eventually(t, func() bool {
		return sim.Snapshot().Now.Equal(epoch.Add(time.Hour))
	}, time.Second, 2*time.Millisecond)

	assert.ErrorIs(t, sim.Run(context.Background()), ErrRunning)

	sim.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestSimulator_SnapshotBeforeRefresh(t *testing.T) {
	sim := New(&fakeSource{slots: slotGrid(2)}, WithClock(clock.NewFixed(epoch)))
	snap := sim.Snapshot()
	assert.Empty(t, snap.Tickets)
	assert.Zero(t, snap.FreeSlots)
	assert.Nil(t, snap.Last)
}
