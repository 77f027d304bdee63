package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/repository"
)

type fakeTickets struct {
	mu        sync.Mutex
	seq       int
	items     map[string]domain.Ticket
	failWrite error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{items: make(map[string]domain.Ticket)}
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	f.seq++
	t.ID = fmt.Sprintf("t%02d", f.seq)
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	if _, ok := f.items[t.ID]; !ok {
		return domain.NotFound("ticket", t.ID)
	}
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTickets) ChangeState(_ context.Context, id string, state domain.TicketState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	t, ok := f.items[id]
	if !ok {
		return domain.NotFound("ticket", id)
	}
	t.State = state
	f.items[id] = t
	return nil
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("ticket", id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, domain.NotFound("ticket", id)
	}
	return &t, nil
}

func (f *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.items {
		if filter.ClientID != nil && t.ClientID != *filter.ClientID {
			continue
		}
		if filter.ContainerID != nil && t.ContainerID != *filter.ContainerID {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, t.State) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTickets) put(t domain.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[t.ID] = t
}

func containsState(states []domain.TicketState, s domain.TicketState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = fmt.Sprintf("h%d", len(f.entries)+1)
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeContainers struct {
	mu    sync.Mutex
	items map[string]domain.Container
	log   []domain.ContainerEvent
}

func newFakeContainers(ids ...string) *fakeContainers {
	f := &fakeContainers{items: make(map[string]domain.Container)}
	for _, id := range ids {
		f.items[id] = domain.Container{ID: id, Code: "MSCU" + id, Location: domain.LocationInTransit}
	}
	return f
}

func (f *fakeContainers) Create(_ context.Context, c *domain.Container) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = fmt.Sprintf("c%d", len(f.items)+1)
	f.items[c.ID] = *c
	return nil
}

func (f *fakeContainers) Update(_ context.Context, c *domain.Container) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[c.ID]; !ok {
		return domain.NotFound("container", c.ID)
	}
	f.items[c.ID] = *c
	return nil
}

func (f *fakeContainers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("container", id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeContainers) GetByID(_ context.Context, id string) (*domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, domain.NotFound("container", id)
	}
	return &c, nil
}

func (f *fakeContainers) List(_ context.Context) ([]domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Container, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeContainers) Append(_ context.Context, e *domain.ContainerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = fmt.Sprintf("e%d", len(f.log)+1)
	f.log = append(f.log, *e)
	return nil
}

func (f *fakeContainers) ListByContainer(_ context.Context, containerID string) ([]domain.ContainerEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ContainerEvent
	for _, e := range f.log {
		if e.ContainerID == containerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeContainers) eventTypes() []domain.ContainerEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ContainerEventType, 0, len(f.log))
	for _, e := range f.log {
		out = append(out, e.Event)
	}
	return out
}

type fakeSlotStore struct {
	mu     sync.Mutex
	writes map[string]bool
	fail   error
}

func (f *fakeSlotStore) SetSlotAvailability(_ context.Context, id string, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if f.writes == nil {
		f.writes = make(map[string]bool)
	}
	f.writes[id] = available
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{items: make(map[string]domain.User)}
	for _, u := range users {
		f.items[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Email == u.Email {
			return domain.Invalid("email", "already exists")
		}
	}
	u.ID = fmt.Sprintf("u%d", len(f.items)+1)
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[u.ID]; !ok {
		return domain.NotFound("user", u.ID)
	}
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("user", id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, domain.NotFound("user", email)
}

func (f *fakeUsers) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.items))
	for _, u := range f.items {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	all, _ := f.List(ctx)
	var out []domain.User
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// authenticatingUsers stands in for a store that checks passwords itself.
type authenticatingUsers struct {
	*fakeUsers
}

func (a authenticatingUsers) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := a.GetByEmail(ctx, email)
	if err != nil || u.PasswordHash != password {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

type fakeFleet struct {
	mu    sync.Mutex
	items map[string]domain.FleetVehicle
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{items: make(map[string]domain.FleetVehicle)}
}

func (f *fakeFleet) Create(_ context.Context, v *domain.FleetVehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = fmt.Sprintf("v%d", len(f.items)+1)
	f.items[v.ID] = *v
	return nil
}

func (f *fakeFleet) Update(_ context.Context, v *domain.FleetVehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[v.ID] = *v
	return nil
}

func (f *fakeFleet) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeFleet) GetByID(_ context.Context, id string) (*domain.FleetVehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[id]
	if !ok {
		return nil, domain.NotFound("vehicle", id)
	}
	return &v, nil
}

func (f *fakeFleet) ListByClient(_ context.Context, clientID string) ([]domain.FleetVehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FleetVehicle
	for _, v := range f.items {
		if v.ClientID == clientID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = fmt.Sprintf("n%d", len(f.items)+1)
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if f.items[i].UserID == userID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == userID {
			f.items[i].Read = true
			return nil
		}
	}
	return domain.NotFound("notification", id)
}

type fakeReference struct {
	ships []domain.Ship
}

func (f fakeReference) ListShips(context.Context) ([]domain.Ship, error) { return f.ships, nil }

func (f fakeReference) GetShip(_ context.Context, id string) (*domain.Ship, error) {
	for _, s := range f.ships {
		if s.ID == id {
			ship := s
			return &ship, nil
		}
	}
	return nil, domain.NotFound("ship", id)
}

func (f fakeReference) ListRoles(context.Context) ([]domain.RoleRecord, error) {
	return []domain.RoleRecord{{ID: "CLIENT", Name: "Cliente"}}, nil
}

func (f fakeReference) ListAccessLevels(context.Context) ([]domain.AccessLevel, error) {
	return []domain.AccessLevel{{ID: "1", Name: "Total"}}, nil
}

type fakeZones struct {
	zones []domain.Zone
}

func (f fakeZones) List(context.Context) ([]domain.Zone, error) { return f.zones, nil }

func (f fakeZones) GetByID(_ context.Context, id string) (*domain.Zone, error) {
	for _, z := range f.zones {
		if z.ID == id {
			zone := z
			return &zone, nil
		}
	}
	return nil, domain.NotFound("zone", id)
}

type fakeSlots struct {
	fakeSlotStore
	slots []domain.Slot
}

func (f *fakeSlots) List(context.Context) ([]domain.Slot, error) { return f.slots, nil }

func (f *fakeSlots) GetByID(_ context.Context, id string) (*domain.Slot, error) {
	for _, s := range f.slots {
		if s.ID == id {
			slot := s
			return &slot, nil
		}
	}
	return nil, domain.NotFound("slot", id)
}
