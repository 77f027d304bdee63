package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// ContainerRepository persists containers.
type ContainerRepository interface {
	Create(ctx context.Context, container *domain.Container) error
	Update(ctx context.Context, container *domain.Container) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Container, error)
	List(ctx context.Context) ([]domain.Container, error)
}

// ContainerEventRepository stores the append-only container log.
type ContainerEventRepository interface {
	Append(ctx context.Context, event *domain.ContainerEvent) error
	ListByContainer(ctx context.Context, containerID string) ([]domain.ContainerEvent, error)
}

type containerRepository struct {
	pool *pgxpool.Pool
}

// NewContainerRepository returns a Postgres-backed implementation.
func NewContainerRepository(pool *pgxpool.Pool) ContainerRepository {
	return &containerRepository{pool: pool}
}

const containerSelect = `
        SELECT c.id, c.code, c.type, c.dimensions, c.weight_kg, c.ship_id, COALESCE(s.shipping_line, ''),
               c.location, c.created_at, c.updated_at
        FROM containers c LEFT JOIN ships s ON s.id = c.ship_id`

func (r *containerRepository) Create(ctx context.Context, container *domain.Container) error {
	const query = `
        INSERT INTO containers (code, type, dimensions, weight_kg, ship_id, location)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if container.Location == "" {
		container.Location = domain.LocationInTransit
	}
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		container.Code,
		container.Type,
		container.Dimensions,
		container.WeightKg,
		container.ShipID,
		container.Location,
	).Scan(&container.ID, &container.CreatedAt, &container.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create container: %w", conflict(err, "code"))
	}
	return nil
}

func (r *containerRepository) Update(ctx context.Context, container *domain.Container) error {
	const query = `
        UPDATE containers SET code=$1, type=$2, dimensions=$3, weight_kg=$4, ship_id=$5, location=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		container.Code,
		container.Type,
		container.Dimensions,
		container.WeightKg,
		container.ShipID,
		container.Location,
		container.ID,
	)
	if err != nil {
		return fmt.Errorf("update container: %w", conflict(lookupErr(err, "container", container.ID), "code"))
	}
	return affected(cmd, "container", container.ID)
}

func (r *containerRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.pool, func(ctx context.Context) error {
		q := conn(ctx, r.pool)
		cmd, err := q.Exec(ctx, `DELETE FROM containers WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete container: %w", lookupErr(err, "container", id))
		}
		if err := affected(cmd, "container", id); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM container_events WHERE container_id=$1`, id); err != nil {
			return fmt.Errorf("delete container events: %w", err)
		}
		return nil
	})
}

func (r *containerRepository) GetByID(ctx context.Context, id string) (*domain.Container, error) {
	container, err := scanContainer(conn(ctx, r.pool).QueryRow(ctx, containerSelect+` WHERE c.id=$1`, id))
	if err != nil {
		return nil, lookupErr(err, "container", id)
	}
	return container, nil
}

func (r *containerRepository) List(ctx context.Context) ([]domain.Container, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, containerSelect+` ORDER BY c.code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer rows.Close()

	var result []domain.Container
	for rows.Next() {
		container, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *container)
	}
	return result, rows.Err()
}

func scanContainer(row pgx.Row) (*domain.Container, error) {
	var c domain.Container
	if err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Dimensions,
		&c.WeightKg,
		&c.ShipID,
		&c.ShippingLine,
		&c.Location,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

type containerEventRepository struct {
	pool *pgxpool.Pool
}

// NewContainerEventRepository returns a Postgres-backed implementation.
func NewContainerEventRepository(pool *pgxpool.Pool) ContainerEventRepository {
	return &containerEventRepository{pool: pool}
}

func (r *containerEventRepository) Append(ctx context.Context, event *domain.ContainerEvent) error {
	const query = `
        INSERT INTO container_events (container_id, ticket_id, event, actor_id, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		event.ContainerID,
		event.TicketID,
		event.Event,
		event.ActorID,
		event.CreatedAt,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append container event: %w", err)
	}
	return nil
}

func (r *containerEventRepository) ListByContainer(ctx context.Context, containerID string) ([]domain.ContainerEvent, error) {
	const query = `
        SELECT id, container_id, ticket_id, event, actor_id, created_at
        FROM container_events WHERE container_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, containerID)
	if err != nil {
		return nil, lookupErr(err, "container", containerID)
	}
	defer rows.Close()

	var result []domain.ContainerEvent
	for rows.Next() {
		var e domain.ContainerEvent
		if err := rows.Scan(&e.ID, &e.ContainerID, &e.TicketID, &e.Event, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
