package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// Authenticator is implemented by user stores that own credentials
// themselves. Such stores receive raw passwords on create and update.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// Registry bundles the entity resources of the data-access contract. The
// postgres and upstream backends both produce one.
type Registry struct {
	Users      UserRepository
	Tickets    TicketRepository
	Containers ContainerRepository
	Zones      ZoneRepository
	Slots      SlotRepository
	Reference  ReferenceRepository
}

// NewPostgresRegistry wires every entity resource to pool.
func NewPostgresRegistry(pool *pgxpool.Pool) Registry {
	return Registry{
		Users:      NewUserRepository(pool),
		Tickets:    NewTicketRepository(pool),
		Containers: NewContainerRepository(pool),
		Zones:      NewZoneRepository(pool),
		Slots:      NewSlotRepository(pool),
		Reference:  NewReferenceRepository(pool),
	}
}
