package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// ZoneRepository reads yard zones.
type ZoneRepository interface {
	List(ctx context.Context) ([]domain.Zone, error)
	GetByID(ctx context.Context, id string) (*domain.Zone, error)
}

// SlotRepository reads slots and persists availability flips made by the ledger.
type SlotRepository interface {
	List(ctx context.Context) ([]domain.Slot, error)
	GetByID(ctx context.Context, id string) (*domain.Slot, error)
	SetSlotAvailability(ctx context.Context, id string, available bool) error
}

type zoneRepository struct {
	pool *pgxpool.Pool
}

// NewZoneRepository returns a Postgres-backed implementation.
func NewZoneRepository(pool *pgxpool.Pool) ZoneRepository {
	return &zoneRepository{pool: pool}
}

func (r *zoneRepository) List(ctx context.Context) ([]domain.Zone, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, capacity FROM zones ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var result []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Capacity); err != nil {
			return nil, err
		}
		result = append(result, z)
	}
	return result, rows.Err()
}

func (r *zoneRepository) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	var z domain.Zone
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, capacity FROM zones WHERE id=$1`, id).
		Scan(&z.ID, &z.Name, &z.Capacity)
	if err != nil {
		return nil, lookupErr(err, "zone", id)
	}
	return &z, nil
}

type slotRepository struct {
	pool *pgxpool.Pool
}

// NewSlotRepository returns a Postgres-backed implementation.
func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &slotRepository{pool: pool}
}

const slotColumns = `id, zone_id, row_no, column_no, tier, available`

func (r *slotRepository) List(ctx context.Context) ([]domain.Slot, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+slotColumns+` FROM slots ORDER BY zone_id, row_no, column_no, tier`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var result []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *slot)
	}
	return result, rows.Err()
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	slot, err := scanSlot(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id=$1`, id))
	if err != nil {
		return nil, lookupErr(err, "slot", id)
	}
	return slot, nil
}

func (r *slotRepository) SetSlotAvailability(ctx context.Context, id string, available bool) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `UPDATE slots SET available=$1 WHERE id=$2`, available, id)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", lookupErr(err, "slot", id))
	}
	return affected(cmd, "slot", id)
}

func scanSlot(row pgx.Row) (*domain.Slot, error) {
	var s domain.Slot
	if err := row.Scan(&s.ID, &s.ZoneID, &s.Row, &s.Column, &s.Tier, &s.Available); err != nil {
		return nil, err
	}
	return &s, nil
}
