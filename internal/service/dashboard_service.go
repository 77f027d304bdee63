package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/repository"
)

const recentTickets = 5

// ClientDashboard summarizes the tickets and fleet of one client.
type ClientDashboard struct {
	Counts   map[domain.TicketState]int
	Active   int
	Finished int
	Vehicles int
	Unread   int
	Recent   []domain.Ticket
}

// AdminDashboard summarizes the whole terminal.
type AdminDashboard struct {
	Counts     map[domain.TicketState]int
	Users      map[domain.Role]int
	Containers int
	FreeSlots  int
	HeldSlots  int
	Zones      []ledger.ZoneSummary
}

// DashboardService aggregates overview figures.
type DashboardService struct {
	tickets       repository.TicketRepository
	users         repository.UserRepository
	containers    repository.ContainerRepository
	fleet         repository.FleetRepository
	notifications *NotificationService
	ledger        *ledger.Ledger
}

// DashboardDependencies bundles collaborators for the dashboard.
type DashboardDependencies struct {
	Tickets       repository.TicketRepository
	Users         repository.UserRepository
	Containers    repository.ContainerRepository
	Fleet         repository.FleetRepository
	Notifications *NotificationService
	Ledger        *ledger.Ledger
}

// NewDashboardService builds the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		tickets:       deps.Tickets,
		users:         deps.Users,
		containers:    deps.Containers,
		fleet:         deps.Fleet,
		notifications: deps.Notifications,
		ledger:        deps.Ledger,
	}
}

// Client builds the dashboard of the calling client.
func (s *DashboardService) Client(ctx context.Context, session domain.SessionContext) (*ClientDashboard, error) {
	if !session.IsClient() {
		return nil, domain.ErrForbidden
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{ClientID: &session.UserID})
	if err != nil {
		return nil, fmt.Errorf("list client tickets: %w", err)
	}
	vehicles, err := s.fleet.ListByClient(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list fleet: %w", err)
	}

	out := &ClientDashboard{Counts: countStates(tickets), Vehicles: len(vehicles)}
	for _, t := range tickets {
		if t.State.IsTerminal() {
			out.Finished++
		} else {
			out.Active++
		}
	}
	if s.notifications != nil {
		if out.Unread, err = s.notifications.Unread(ctx, session); err != nil {
			return nil, err
		}
	}

	recent := append([]domain.Ticket(nil), tickets...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > recentTickets {
		recent = recent[:recentTickets]
	}
	out.Recent = recent
	return out, nil
}

// Admin builds the terminal-wide dashboard.
func (s *DashboardService) Admin(ctx context.Context, session domain.SessionContext) (*AdminDashboard, error) {
	if !session.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	containers, err := s.containers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := &AdminDashboard{
		Counts:     countStates(tickets),
		Users:      make(map[domain.Role]int),
		Containers: len(containers),
		FreeSlots:  s.ledger.Available(""),
		HeldSlots:  s.ledger.Held(),
		Zones:      s.ledger.Summary(),
	}
	for _, u := range users {
		out.Users[u.Role]++
	}
	return out, nil
}

func countStates(tickets []domain.Ticket) map[domain.TicketState]int {
	counts := make(map[domain.TicketState]int, len(domain.TicketStates))
	for _, state := range domain.TicketStates {
		counts[state] = 0
	}
	for _, t := range tickets {
		counts[t.State]++
	}
	return counts
}
