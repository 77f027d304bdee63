package domain

import "time"

// LocationInTransit marks a container that is not parked in any zone.
const LocationInTransit = "IN_TRANSIT"

// ContainerEventType names entries in a container's log.
type ContainerEventType string

const (
	ContainerEventTicketCreated    ContainerEventType = "TICKET_CREATED"
	ContainerEventQueued           ContainerEventType = "QUEUED"
	ContainerEventSlotAssigned     ContainerEventType = "SLOT_ASSIGNED"
	ContainerEventEntered          ContainerEventType = "VEHICLE_ENTERED"
	ContainerEventHandlingFinished ContainerEventType = "HANDLING_FINISHED"
	ContainerEventCompleted        ContainerEventType = "COMPLETED"
	ContainerEventWithdrawn        ContainerEventType = "WITHDRAWN"
	ContainerEventCancelled        ContainerEventType = "CANCELLED"
)

// Container is a shipping container tracked by the terminal.
type Container struct {
	ID           string
	Code         string
	Type         string
	Dimensions   string
	WeightKg     float64
	ShipID       *string
	ShippingLine string
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContainerEvent is one entry of the append-only container log.
type ContainerEvent struct {
	ID          string
	ContainerID string
	TicketID    *string
	Event       ContainerEventType
	ActorID     string
	CreatedAt   time.Time
}
