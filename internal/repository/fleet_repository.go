package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// FleetRepository persists client vehicles.
type FleetRepository interface {
	Create(ctx context.Context, vehicle *domain.FleetVehicle) error
	Update(ctx context.Context, vehicle *domain.FleetVehicle) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.FleetVehicle, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.FleetVehicle, error)
}

type fleetRepository struct {
	pool *pgxpool.Pool
}

// NewFleetRepository returns a Postgres-backed implementation.
func NewFleetRepository(pool *pgxpool.Pool) FleetRepository {
	return &fleetRepository{pool: pool}
}

const fleetColumns = `id, client_id, plate, driver, vehicle_type, status, created_at, updated_at`

func (r *fleetRepository) Create(ctx context.Context, vehicle *domain.FleetVehicle) error {
	const query = `
        INSERT INTO fleet_vehicles (client_id, plate, driver, vehicle_type, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		vehicle.ClientID,
		vehicle.Plate,
		vehicle.Driver,
		vehicle.VehicleType,
		vehicle.Status,
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create vehicle: %w", conflict(err, "plate"))
	}
	return nil
}

func (r *fleetRepository) Update(ctx context.Context, vehicle *domain.FleetVehicle) error {
	const query = `
        UPDATE fleet_vehicles SET plate=$1, driver=$2, vehicle_type=$3, status=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		vehicle.Plate,
		vehicle.Driver,
		vehicle.VehicleType,
		vehicle.Status,
		vehicle.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", conflict(lookupErr(err, "vehicle", vehicle.ID), "plate"))
	}
	return affected(cmd, "vehicle", vehicle.ID)
}

func (r *fleetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM fleet_vehicles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", lookupErr(err, "vehicle", id))
	}
	return affected(cmd, "vehicle", id)
}

func (r *fleetRepository) GetByID(ctx context.Context, id string) (*domain.FleetVehicle, error) {
	vehicle, err := scanVehicle(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+fleetColumns+` FROM fleet_vehicles WHERE id=$1`, id))
	if err != nil {
		return nil, lookupErr(err, "vehicle", id)
	}
	return vehicle, nil
}

func (r *fleetRepository) ListByClient(ctx context.Context, clientID string) ([]domain.FleetVehicle, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+fleetColumns+` FROM fleet_vehicles WHERE client_id=$1 ORDER BY plate ASC`, clientID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var result []domain.FleetVehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *vehicle)
	}
	return result, rows.Err()
}

func scanVehicle(row pgx.Row) (*domain.FleetVehicle, error) {
	var v domain.FleetVehicle
	if err := row.Scan(&v.ID, &v.ClientID, &v.Plate, &v.Driver, &v.VehicleType, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
