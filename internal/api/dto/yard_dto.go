package dto

import (
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// ContainerRequest payload for create.
type ContainerRequest struct {
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Dimensions string  `json:"dimensions"`
	WeightKg   float64 `json:"weight_kg"`
	ShipID     *string `json:"ship_id"`
}

// UpdateContainerRequest payload; absent fields stay unchanged.
type UpdateContainerRequest struct {
	Code       *string  `json:"code"`
	Type       *string  `json:"type"`
	Dimensions *string  `json:"dimensions"`
	WeightKg   *float64 `json:"weight_kg"`
	ShipID     *string  `json:"ship_id"`
	Location   *string  `json:"location"`
}

// ContainerResponse represents a container.
type ContainerResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Type         string    `json:"type"`
	Dimensions   string    `json:"dimensions"`
	WeightKg     float64   `json:"weight_kg"`
	ShipID       *string   `json:"ship_id"`
	ShippingLine string    `json:"shipping_line"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContainerEventResponse is one entry of the container log.
type ContainerEventResponse struct {
	ID        string                    `json:"id"`
	TicketID  *string                   `json:"ticket_id"`
	Event     domain.ContainerEventType `json:"event"`
	ActorID   string                    `json:"actor_id"`
	CreatedAt time.Time                 `json:"created_at"`
}

// ContainerDetailResponse is the quick-query view.
type ContainerDetailResponse struct {
	ContainerResponse
	Events []ContainerEventResponse `json:"events"`
	Ticket *TicketResponse          `json:"ticket"`
}

// FleetRequest payload for create.
type FleetRequest struct {
	Plate       string               `json:"plate"`
	Driver      string               `json:"driver"`
	VehicleType string               `json:"vehicle_type"`
	Status      domain.VehicleStatus `json:"status"`
}

// UpdateFleetRequest payload; absent fields stay unchanged.
type UpdateFleetRequest struct {
	Plate       *string               `json:"plate"`
	Driver      *string               `json:"driver"`
	VehicleType *string               `json:"vehicle_type"`
	Status      *domain.VehicleStatus `json:"status"`
}

// FleetResponse represents a vehicle.
type FleetResponse struct {
	ID          string               `json:"id"`
	ClientID    string               `json:"client_id"`
	Plate       string               `json:"plate"`
	Driver      string               `json:"driver"`
	VehicleType string               `json:"vehicle_type"`
	Status      domain.VehicleStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ZoneResponse is a zone with live occupancy.
type ZoneResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Capacity int    `json:"capacity"`
	Free     int    `json:"free"`
	Held     int    `json:"held"`
}

// SlotResponse represents a slot.
type SlotResponse struct {
	ID        string `json:"id"`
	ZoneID    string `json:"zone_id"`
	Label     string `json:"label"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	Tier      int    `json:"tier"`
	Available bool   `json:"available"`
}

// ShipResponse represents a vessel.
type ShipResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShippingLine string `json:"shipping_line"`
}

// ReferenceResponse is an id and name pair.
type ReferenceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
