package domain

import "time"

// VehicleStatus is the operational status of a fleet vehicle.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "ACTIVE"
	VehicleStatusInactive VehicleStatus = "INACTIVE"
)

// FleetVehicle is a truck owned by a client.
type FleetVehicle struct {
	ID          string
	ClientID    string
	Plate       string
	Driver      string
	VehicleType string
	Status      VehicleStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
