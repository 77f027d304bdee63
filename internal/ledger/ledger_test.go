package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portyard/port-ticket-service/internal/domain"
)

func grid(zone string, rows, cols int) []domain.Slot {
	var out []domain.Slot
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			out = append(out, domain.Slot{
				ID:        fmt.Sprintf("%s-%d-%d", zone, r, c),
				ZoneID:    zone,
				Row:       r,
				Column:    c,
				Tier:      1,
				Available: true,
			})
		}
	}
	return out
}

type recordingStore struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (s *recordingStore) SetSlotAvailability(_ context.Context, slotID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.calls = append(s.calls, fmt.Sprintf("%s=%t", slotID, available))
	return nil
}

func TestLedger_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	l := New(append(grid("B", 1, 2), grid("A", 1, 2)...), WithStore(store))

	slot, err := l.Reserve(ctx, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, "A-1-1", slot, "allocation follows zone/row/column order")
	assert.False(t, l.IsAvailable(slot))
	holder, ok := l.HolderOf(slot)
	require.True(t, ok)
	assert.Equal(t, "t1", holder)
	assert.Equal(t, 1, l.Held())
	assert.Equal(t, 3, l.Available(""))

	require.NoError(t, l.Release(ctx, slot))
	assert.True(t, l.IsAvailable(slot))
	assert.Equal(t, 0, l.Held())
	assert.Equal(t, []string{"A-1-1=false", "A-1-1=true"}, store.calls)
}

func TestLedger_ReserveHonoursZone(t *testing.T) {
	l := New(append(grid("A", 1, 1), grid("B", 1, 2)...))

	slot, err := l.Reserve(context.Background(), "t1", "B")
	require.NoError(t, err)
	assert.Equal(t, "B-1-1", slot)

	_, err = l.Reserve(context.Background(), "t2", "A")
	require.NoError(t, err)

	_, err = l.Reserve(context.Background(), "t3", "A")
	assert.ErrorIs(t, err, domain.ErrNoSlotAvailable)
	assert.Equal(t, 1, l.Available("B"))
}

func TestLedger_ReserveIsIdempotentPerTicket(t *testing.T) {
	l := New(grid("A", 1, 3))
	first, err := l.Reserve(context.Background(), "t1", "")
	require.NoError(t, err)
	second, err := l.Reserve(context.Background(), "t1", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, l.Held())
}

func TestLedger_DoubleReleaseReported(t *testing.T) {
	ctx := context.Background()
	l := New(grid("A", 1, 2))
	slot, err := l.Reserve(ctx, "t1", "")
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, slot))

	freeBefore := l.Available("")
	err = l.Release(ctx, slot)

	assert.ErrorIs(t, err, domain.ErrAlreadyReleased)
	assert.Equal(t, freeBefore, l.Available(""))
	assert.ErrorIs(t, l.Release(ctx, "nope"), domain.ErrRecordNotFound)
}

func TestLedger_StoreFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	l := New(grid("A", 1, 1), WithStore(store))
	slot, err := l.Reserve(ctx, "t1", "")
	require.NoError(t, err)

	store.fail = errors.New("db down")
	err = l.Release(ctx, slot)
	require.Error(t, err)
	assert.False(t, l.IsAvailable(slot))

	require.NoError(t, l.Restore(slot, "t1"))
	store.fail = nil
	require.NoError(t, l.Release(ctx, slot))

	store.fail = errors.New("db down")
	_, err = l.Reserve(ctx, "t2", "")
	require.Error(t, err)
	assert.True(t, l.IsAvailable(slot))
}

func TestLedger_RestoreRejectsForeignHolder(t *testing.T) {
	l := New(grid("A", 1, 1))
	require.NoError(t, l.Restore("A-1-1", "t1"))
	assert.ErrorIs(t, l.Restore("A-1-1", "t2"), domain.ErrSlotHeld)
	assert.ErrorIs(t, l.Restore("missing", "t1"), domain.ErrRecordNotFound)
}

func TestLedger_ReacquirePersistsAndGuardsHolder(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	l := New(grid("A", 1, 1), WithStore(store))
	slot, err := l.Reserve(ctx, "t1", "")
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, slot))

	require.NoError(t, l.Reacquire(ctx, slot, "t1"))
	holder, ok := l.HolderOf(slot)
	require.True(t, ok)
	assert.Equal(t, "t1", holder)
	assert.Equal(t, []string{"A-1-1=false", "A-1-1=true", "A-1-1=false"}, store.calls)

	require.NoError(t, l.Reacquire(ctx, slot, "t1"))
	assert.ErrorIs(t, l.Reacquire(ctx, slot, "t2"), domain.ErrSlotHeld)
}

func TestLedger_ConcurrentReservationsNeverShareASlot(t *testing.T) {
	const slots, tickets = 25, 60
	l := New(grid("A", 5, 5))

	var wg sync.WaitGroup
	results := make([]string, tickets)
	errs := make([]error, tickets)
	for i := 0; i < tickets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Reserve(context.Background(), fmt.Sprintf("t%d", i), "")
		}(i)
	}
	wg.Wait()

	owners := map[string]int{}
	granted := 0
	for i := range results {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], domain.ErrNoSlotAvailable)
			continue
		}
		granted++
		owners[results[i]]++
	}
	assert.Equal(t, slots, granted)
	for slot, n := range owners {
		assert.Equal(t, 1, n, "slot %s handed out twice", slot)
	}
	assert.Equal(t, 0, l.Available(""))
}

func TestLedger_SummaryAndObserver(t *testing.T) {
	seen := map[string]int{}
	l := New(append(grid("A", 1, 2), grid("B", 1, 1)...), WithObserver(func(zone string, free int) {
		seen[zone] = free
	}))
	_, err := l.Reserve(context.Background(), "t1", "A")
	require.NoError(t, err)

	assert.Equal(t, []ZoneSummary{
		{ZoneID: "A", Capacity: 2, Free: 1, Held: 1},
		{ZoneID: "B", Capacity: 1, Free: 1, Held: 0},
	}, l.Summary())
	assert.Equal(t, 1, seen["A"])
}

func TestLedger_RebuildAdoptsHoldings(t *testing.T) {
	slots := grid("A", 1, 3)
	slots[2].Available = false
	a1, a2 := "A-1-1", "A-1-1"
	tickets := []domain.Ticket{
		{ID: "t1", SlotID: &a1},
		{ID: "t2", SlotID: &a2},
		{ID: "t3"},
	}

	l := Rebuild(slots, tickets)

	holder, ok := l.HolderOf("A-1-1")
	require.True(t, ok)
	assert.Equal(t, "t1", holder)
	assert.True(t, l.IsAvailable("A-1-2"))
	holder, ok = l.HolderOf("A-1-3")
	require.True(t, ok)
	assert.Equal(t, OccupiedHolder("A-1-3"), holder)
	assert.Equal(t, 1, l.Available(""))
}

func TestLedger_RebuildOnlyAdoptsUnavailableSlots(t *testing.T) {
	slots := grid("A", 1, 2)
	slots[0].Available = false

	l := Rebuild(slots, nil)

	holder, ok := l.HolderOf("A-1-1")
	require.True(t, ok)
	assert.Equal(t, OccupiedHolder("A-1-1"), holder)
	_, ok = l.HolderOf("A-1-2")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Available("A"))
}
