package service

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
	"github.com/portyard/port-ticket-service/internal/events"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/query"
)

var (
	epoch    = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	client   = domain.SessionContext{UserID: "client-1", Role: domain.RoleClient}
	other    = domain.SessionContext{UserID: "client-2", Role: domain.RoleClient}
	operator = domain.SessionContext{UserID: "op-1", Role: domain.RoleOperator}
	admin    = domain.SessionContext{UserID: "admin-1", Role: domain.RoleAdmin}
)

type harness struct {
	svc        *TicketService
	tickets    *fakeTickets
	history    *fakeHistory
	containers *fakeContainers
	store      *fakeSlotStore
	ledger     *ledger.Ledger
	clock      *clock.Manual
	published  []events.Event
	mu         sync.Mutex
}

func yard(zone string, n int) []domain.Slot {
	out := make([]domain.Slot, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Slot{ID: fmt.Sprintf("%s-%d", zone, i), ZoneID: zone, Row: 1, Column: i, Tier: 1, Available: true})
	}
	return out
}

func newHarness(t *testing.T, slots []domain.Slot) *harness {
	t.Helper()
	h := &harness{
		tickets:    newFakeTickets(),
		history:    &fakeHistory{},
		containers: newFakeContainers("c1", "c2"),
		store:      &fakeSlotStore{},
		clock:      clock.NewManual(epoch),
	}
	h.ledger = ledger.New(slots, ledger.WithStore(h.store))
	dispatcher := events.NewInMemoryDispatcher(nil)
	capture := func(_ context.Context, e events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.published = append(h.published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, capture)
	dispatcher.Subscribe(events.EventTicketStateChanged, capture)
	dispatcher.Subscribe(events.EventTicketDeleted, capture)

	h.svc = NewTicketService(TicketDependencies{
		Tickets:         h.tickets,
		History:         h.history,
		Containers:      h.containers,
		ContainerEvents: h.containers,
		Ledger:          h.ledger,
		Dispatcher:      dispatcher,
		Clock:           h.clock,
	})
	return h
}

func (h *harness) queued(t *testing.T, session domain.SessionContext) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	tk, err := h.svc.Create(ctx, session, TicketCreateInput{ContainerID: "c1", Plate: "abc123"})
	require.NoError(t, err)
	tk, err = h.svc.Enqueue(ctx, session, tk.ID)
	require.NoError(t, err)
	return tk
}

func TestTicketService_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 2))

	tk, err := h.svc.Create(ctx, client, TicketCreateInput{ContainerID: "c1", Plate: "abc123", Driver: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatePending, tk.State)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, tk.Code)
	assert.Equal(t, "ABC123", tk.Plate)
	assert.Equal(t, "Ana", tk.Driver)
	assert.Equal(t, client.UserID, tk.ClientID)

	steps := []struct {
		name    string
		session domain.SessionContext
		run     func(context.Context, domain.SessionContext, string) (*domain.Ticket, error)
		state   domain.TicketState
		held    int
	}{
		{"enqueue", client, h.svc.Enqueue, domain.TicketStateQueued, 0},
		{"validate", operator, h.svc.Validate, domain.TicketStateValidated, 1},
		{"entry", operator, h.svc.RegisterEntry, domain.TicketStateInProgress, 1},
		{"handling", operator, h.svc.FinishHandling, domain.TicketStateInProgress, 1},
		{"complete", operator, h.svc.Complete, domain.TicketStateCompleted, 1},
		{"exit", operator, h.svc.RegisterExit, domain.TicketStateWithdrawn, 0},
	}
	for _, step := range steps {
		h.clock.Advance(time.Minute)
		got, err := step.run(ctx, step.session, tk.ID)
		require.NoError(t, err, step.name)
		assert.Equal(t, step.state, got.State, step.name)
		assert.Equal(t, step.held, h.ledger.Held(), step.name)

		stored, err := h.tickets.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, step.state, stored.State, step.name)
	}

	final, err := h.svc.Get(ctx, client, tk.ID)
	require.NoError(t, err)
	assert.Nil(t, final.SlotID)
	require.NotNil(t, final.ExitedAt)
	assert.Equal(t, epoch.Add(6*time.Minute), *final.ExitedAt)

	timeline, err := h.svc.Timeline(ctx, client, tk.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 6)
	assert.Equal(t, "create", timeline[0].Event)
	assert.Equal(t, domain.TicketStateWithdrawn, timeline[5].ToState)
	require.NotNil(t, timeline[2].SlotID)
	assert.Equal(t, "Z1-1", *timeline[2].SlotID)

	assert.Equal(t, []domain.ContainerEventType{
		domain.ContainerEventTicketCreated,
		domain.ContainerEventQueued,
		domain.ContainerEventSlotAssigned,
		domain.ContainerEventEntered,
		domain.ContainerEventHandlingFinished,
		domain.ContainerEventCompleted,
		domain.ContainerEventWithdrawn,
	}, h.containers.eventTypes())

	container, err := h.containers.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocationInTransit, container.Location)
	assert.Equal(t, map[string]bool{"Z1-1": true}, h.store.writes)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.published, 6)
	assert.Equal(t, events.EventTicketCreated, h.published[0].Type)
	assert.Equal(t, client.UserID, h.published[1].Actor.UserID)
}

func TestTicketService_ValidateWithoutFreeSlotKeepsTicketQueued(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	first := h.queued(t, client)
	second := h.queued(t, client)

	_, err := h.svc.Validate(ctx, operator, first.ID)
	require.NoError(t, err)

	_, err = h.svc.Validate(ctx, operator, second.ID)
	assert.ErrorIs(t, err, domain.ErrNoSlotAvailable)

	stored, err := h.tickets.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateQueued, stored.State)
	assert.Nil(t, stored.SlotID)
	assert.Equal(t, 1, h.ledger.Held())
}

func TestTicketService_ValidateHonoursPreferredZone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, append(yard("Z1", 1), yard("Z2", 1)...))
	zone := "Z2"
	tk, err := h.svc.Create(ctx, client, TicketCreateInput{ContainerID: "c1", ZoneID: &zone})
	require.NoError(t, err)
	_, err = h.svc.Enqueue(ctx, client, tk.ID)
	require.NoError(t, err)

	got, err := h.svc.Validate(ctx, operator, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SlotID)
	assert.Equal(t, "Z2-1", *got.SlotID)

	container, err := h.containers.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Z2", container.Location)

	unknown := "Z9"
	_, err = h.svc.Create(ctx, client, TicketCreateInput{ContainerID: "c1", ZoneID: &unknown})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTicketService_PersistFailureRevertsLedger(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	tk := h.queued(t, client)

	h.tickets.failWrite = errors.New("db down")
	_, err := h.svc.Validate(ctx, operator, tk.ID)
	require.Error(t, err)
	assert.Equal(t, 1, h.ledger.Available(""))
	assert.True(t, h.ledger.IsAvailable("Z1-1"))

	h.tickets.failWrite = nil
	tk, err = h.svc.Validate(ctx, operator, tk.ID)
	require.NoError(t, err)
	_, err = h.svc.RegisterEntry(ctx, operator, tk.ID)
	require.NoError(t, err)
	_, err = h.svc.FinishHandling(ctx, operator, tk.ID)
	require.NoError(t, err)
	_, err = h.svc.Complete(ctx, operator, tk.ID)
	require.NoError(t, err)

	h.tickets.failWrite = errors.New("db down")
	_, err = h.svc.RegisterExit(ctx, operator, tk.ID)
	require.Error(t, err)

	holder, ok := h.ledger.HolderOf("Z1-1")
	require.True(t, ok)
	assert.Equal(t, tk.ID, holder)
	stored, err := h.tickets.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateCompleted, stored.State)
	assert.False(t, h.store.writes["Z1-1"])
}

func TestTicketService_CancelInProgressTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	tk := h.queued(t, client)
	_, err := h.svc.Validate(ctx, operator, tk.ID)
	require.NoError(t, err)
	_, err = h.svc.RegisterEntry(ctx, operator, tk.ID)
	require.NoError(t, err)

	got, err := h.svc.Cancel(ctx, client, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateCancelled, got.State)
	assert.Nil(t, got.SlotID)
	assert.Equal(t, 0, h.ledger.Held())

	_, err = h.svc.Cancel(ctx, client, tk.ID)
	var transition *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.TicketStateCancelled, transition.From)
}

func TestTicketService_GuardsAndScoping(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 2))
	tk := h.queued(t, client)

	_, err := h.svc.Validate(ctx, client, tk.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.Cancel(ctx, other, tk.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.Get(ctx, other, tk.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = h.svc.Create(ctx, operator, TicketCreateInput{ContainerID: "c1"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.Create(ctx, admin, TicketCreateInput{ContainerID: "c1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.svc.Create(ctx, client, TicketCreateInput{ContainerID: "missing"})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = h.svc.FinishHandling(ctx, operator, tk.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.svc.Complete(ctx, operator, "nope")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestTicketService_CompleteRequiresFinishedHandling(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	tk := h.queued(t, client)
	_, err := h.svc.Validate(ctx, operator, tk.ID)
	require.NoError(t, err)
	_, err = h.svc.RegisterEntry(ctx, operator, tk.ID)
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, operator, tk.ID)
	assert.ErrorIs(t, err, domain.ErrHandlingPending)
}

func TestTicketService_Delete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	held := h.queued(t, client)
	_, err := h.svc.Validate(ctx, operator, held.ID)
	require.NoError(t, err)
	pending, err := h.svc.Create(ctx, client, TicketCreateInput{ContainerID: "c2"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.Delete(ctx, operator, pending.ID), domain.ErrForbidden)
	assert.ErrorIs(t, h.svc.Delete(ctx, admin, held.ID), domain.ErrSlotHeld)
	require.NoError(t, h.svc.Delete(ctx, admin, pending.ID))

	_, err = h.tickets.GetByID(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestTicketService_ListAndHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 1))
	for i := 0; i < 3; i++ {
		h.queued(t, client)
	}
	h.queued(t, other)

	own, err := h.svc.List(ctx, client, TicketListInput{Query: query.Options{PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, own.TotalRows)
	assert.Equal(t, 2, own.TotalPages)

	all, err := h.svc.List(ctx, operator, TicketListInput{States: []domain.TicketState{domain.TicketStateQueued}})
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalRows)

	base := epoch.Add(time.Hour)
	for i, id := range []string{"t01", "t02", "t03"} {
		tk, err := h.tickets.GetByID(ctx, id)
		require.NoError(t, err)
		exited := base.Add(time.Duration(i) * time.Minute)
		tk.State = domain.TicketStateWithdrawn
		tk.ExitedAt = &exited
		h.tickets.put(*tk)
	}

	history, err := h.svc.History(ctx, client, query.Options{})
	require.NoError(t, err)
	require.Len(t, history.Rows, 3)
	assert.Equal(t, "t03", history.Rows[0].ID)
	assert.Equal(t, "t01", history.Rows[2].ID)

	theirs, err := h.svc.History(ctx, other, query.Options{})
	require.NoError(t, err)
	assert.Empty(t, theirs.Rows)
}

func TestTicketService_ConcurrentValidationsNeverShareSlots(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 5))
	ids := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		ids = append(ids, h.queued(t, client).ID)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     = map[string]string{}
		noSlots int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			tk, err := h.svc.Validate(ctx, operator, id)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, domain.ErrNoSlotAvailable) {
				noSlots++
				return
			}
			if assert.NoError(t, err) {
				won[*tk.SlotID] = id
			}
		}(id)
	}
	wg.Wait()

	assert.Len(t, won, 5)
	assert.Equal(t, 7, noSlots)
	assert.Equal(t, 0, h.ledger.Available(""))
}

func TestTicketService_SimulatorSource(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, yard("Z1", 2))
	tk := h.queued(t, client)
	_, err := h.svc.Validate(ctx, operator, tk.ID)
	require.NoError(t, err)
	done := h.queued(t, client)
	_, err = h.svc.Cancel(ctx, client, done.ID)
	require.NoError(t, err)

	active, err := h.svc.MonitorTickets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1, "cancelled tickets are left out")
	assert.Equal(t, tk.ID, active[0].ID)

	slots, err := h.svc.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.False(t, slots[0].Available)
	assert.True(t, slots[1].Available)
}
