package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// ReferenceRepository reads ships, roles and access levels.
type ReferenceRepository interface {
	ListShips(ctx context.Context) ([]domain.Ship, error)
	GetShip(ctx context.Context, id string) (*domain.Ship, error)
	ListRoles(ctx context.Context) ([]domain.RoleRecord, error)
	ListAccessLevels(ctx context.Context) ([]domain.AccessLevel, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository returns a Postgres-backed implementation.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) ListShips(ctx context.Context) ([]domain.Ship, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, shipping_line FROM ships ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ships: %w", err)
	}
	defer rows.Close()

	var result []domain.Ship
	for rows.Next() {
		var s domain.Ship
		if err := rows.Scan(&s.ID, &s.Name, &s.ShippingLine); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *referenceRepository) GetShip(ctx context.Context, id string) (*domain.Ship, error) {
	var s domain.Ship
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, shipping_line FROM ships WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.ShippingLine)
	if err != nil {
		return nil, lookupErr(err, "ship", id)
	}
	return &s, nil
}

func (r *referenceRepository) ListRoles(ctx context.Context) ([]domain.RoleRecord, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var result []domain.RoleRecord
	for rows.Next() {
		var role domain.RoleRecord
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListAccessLevels(ctx context.Context) ([]domain.AccessLevel, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM access_levels ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list access levels: %w", err)
	}
	defer rows.Close()

	var result []domain.AccessLevel
	for rows.Next() {
		var level domain.AccessLevel
		if err := rows.Scan(&level.ID, &level.Name); err != nil {
			return nil, err
		}
		result = append(result, level)
	}
	return result, rows.Err()
}
