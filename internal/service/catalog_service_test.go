package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/query"
)

func queryAll() query.Options {
	return query.Options{PageSize: 100}
}

func TestContainerService_CreateAndQuickQuery(t *testing.T) {
	ctx := context.Background()
	containers := newFakeContainers()
	tickets := newFakeTickets()
	ref := fakeReference{ships: []domain.Ship{{ID: "s1", Name: "Maersk Antofagasta", ShippingLine: "Maersk"}}}
	svc := NewContainerService(containers, containers, tickets, ref, nil)

	_, err := svc.Create(ctx, operator, ContainerInput{Code: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ship := "s1"
	created, err := svc.Create(ctx, admin, ContainerInput{Code: " mscu1234567 ", Type: "40HC", WeightKg: 21000, ShipID: &ship})
	require.NoError(t, err)
	assert.Equal(t, "MSCU1234567", created.Code)
	assert.Equal(t, "Maersk", created.ShippingLine)
	assert.Equal(t, domain.LocationInTransit, created.Location)

	missing := "s9"
	_, err = svc.Create(ctx, admin, ContainerInput{Code: "X1", ShipID: &missing})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	tickets.put(domain.Ticket{ID: "t1", ContainerID: created.ID, State: domain.TicketStateWithdrawn, CreatedAt: epoch})
	tickets.put(domain.Ticket{ID: "t2", ContainerID: created.ID, State: domain.TicketStateQueued, CreatedAt: epoch})
	require.NoError(t, containers.Append(ctx, &domain.ContainerEvent{ContainerID: created.ID, Event: domain.ContainerEventQueued}))

	detail, err := svc.Get(ctx, operator, created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Ticket)
	assert.Equal(t, "t2", detail.Ticket.ID)
	assert.Len(t, detail.Events, 1)

	_, err = svc.Get(ctx, client, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, admin, created.ID), domain.ErrValidation)

	res, err := svc.List(ctx, query.Options{SearchTerm: "maersk"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalRows)
}

func TestFleetService_Ownership(t *testing.T) {
	ctx := context.Background()
	svc := NewFleetService(newFakeFleet())

	v, err := svc.Create(ctx, client, FleetInput{Plate: "ab-cd-12", Driver: "Luis"})
	require.NoError(t, err)
	assert.Equal(t, "AB-CD-12", v.Plate)
	assert.Equal(t, domain.VehicleStatusActive, v.Status)

	_, err = svc.Create(ctx, operator, FleetInput{Plate: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bad := domain.VehicleStatus("BROKEN")
	_, err = svc.Update(ctx, client, v.ID, FleetUpdateInput{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(ctx, other, v.ID, FleetUpdateInput{})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	mine, err := svc.List(ctx, client, "", queryAll())
	require.NoError(t, err)
	assert.Equal(t, 1, mine.TotalRows)

	theirs, err := svc.List(ctx, other, client.UserID, queryAll())
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.TotalRows)

	byAdmin, err := svc.List(ctx, admin, client.UserID, queryAll())
	require.NoError(t, err)
	assert.Equal(t, 1, byAdmin.TotalRows)

	require.NoError(t, svc.Delete(ctx, admin, v.ID))
}

func TestZoneService_Occupancy(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(append(yard("Z1", 2), yard("Z2", 1)...))
	_, err := l.Reserve(ctx, "t1", "Z1")
	require.NoError(t, err)
	zones := fakeZones{zones: []domain.Zone{{ID: "Z1", Name: "A", Capacity: 2}, {ID: "Z2", Name: "B", Capacity: 1}, {ID: "Z3", Name: "C", Capacity: 4}}}
	svc := NewZoneService(zones, fakeReference{}, l)

	views, err := svc.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, ZoneView{Zone: zones.zones[0], Capacity: 2, Free: 1, Held: 1}, views[0])
	assert.Equal(t, 4, views[2].Capacity)

	view, err := svc.GetZone(ctx, "Z2")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Free)

	assert.Len(t, svc.ListSlots(ctx, SlotFilter{FreeOnly: true}), 2)
	assert.Len(t, svc.ListSlots(ctx, SlotFilter{ZoneID: "Z1"}), 2)
}

func TestLoadLedger_AdoptsHoldings(t *testing.T) {
	ctx := context.Background()
	slots := &fakeSlots{slots: yard("Z1", 3)}
	slots.slots[0].Available = false
	slots.slots[2].Available = false
	tickets := newFakeTickets()
	held := "Z1-1"
	tickets.put(domain.Ticket{ID: "t1", State: domain.TicketStateInProgress, SlotID: &held})
	tickets.put(domain.Ticket{ID: "t2", State: domain.TicketStateQueued})

	l, err := LoadLedger(ctx, slots, tickets, nil, nil)
	require.NoError(t, err)

	holder, ok := l.HolderOf("Z1-1")
	require.True(t, ok)
	assert.Equal(t, "t1", holder)
	assert.True(t, l.IsAvailable("Z1-2"))
	assert.False(t, l.IsAvailable("Z1-3"))

	reserved, err := l.Reserve(ctx, "t2", "")
	require.NoError(t, err)
	assert.Equal(t, "Z1-2", reserved)
	assert.Equal(t, map[string]bool{"Z1-2": false}, slots.writes)
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTickets()
	tickets.put(domain.Ticket{ID: "t1", ClientID: client.UserID, State: domain.TicketStateQueued, UpdatedAt: epoch})
	tickets.put(domain.Ticket{ID: "t2", ClientID: client.UserID, State: domain.TicketStateWithdrawn, UpdatedAt: epoch.Add(1)})
	tickets.put(domain.Ticket{ID: "t3", ClientID: other.UserID, State: domain.TicketStateQueued, UpdatedAt: epoch})
	fleet := newFakeFleet()
	require.NoError(t, fleet.Create(ctx, &domain.FleetVehicle{ClientID: client.UserID, Plate: "X"}))
	store := &fakeNotifications{}
	require.NoError(t, store.Create(ctx, &domain.Notification{UserID: client.UserID, Message: "hi"}))
	users := newFakeUsers(
		domain.User{ID: client.UserID, Role: domain.RoleClient},
		domain.User{ID: admin.UserID, Role: domain.RoleAdmin},
	)
	l := ledger.New(yard("Z1", 4))

	svc := NewDashboardService(DashboardDependencies{
		Tickets:       tickets,
		Users:         users,
		Containers:    newFakeContainers("c1"),
		Fleet:         fleet,
		Notifications: NewNotificationService(nil, store, users, nil, nil),
		Ledger:        l,
	})

	cd, err := svc.Client(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, 1, cd.Active)
	assert.Equal(t, 1, cd.Finished)
	assert.Equal(t, 1, cd.Vehicles)
	assert.Equal(t, 1, cd.Unread)
	require.Len(t, cd.Recent, 2)
	assert.Equal(t, "t2", cd.Recent[0].ID)

	_, err = svc.Client(ctx, admin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ad, err := svc.Admin(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, ad.Counts[domain.TicketStateQueued])
	assert.Equal(t, 0, ad.Counts[domain.TicketStateCancelled])
	assert.Equal(t, 1, ad.Users[domain.RoleAdmin])
	assert.Equal(t, 4, ad.FreeSlots)
	assert.Equal(t, 1, ad.Containers)
}
