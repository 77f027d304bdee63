package dto

import (
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ClientID    string  `json:"client_id"`
	ContainerID string  `json:"container_id"`
	Transporter string  `json:"transporter"`
	Driver      string  `json:"driver"`
	Plate       string  `json:"plate"`
	Shift       string  `json:"shift"`
	ZoneID      *string `json:"zone_id"`
}

// TicketResponse represents one ticket.
type TicketResponse struct {
	ID                 string             `json:"id"`
	Code               string             `json:"code"`
	ClientID           string             `json:"client_id"`
	ContainerID        string             `json:"container_id"`
	Transporter        string             `json:"transporter"`
	Driver             string             `json:"driver"`
	Plate              string             `json:"plate"`
	Shift              string             `json:"shift"`
	ZoneID             *string            `json:"zone_id"`
	State              domain.TicketState `json:"state"`
	SlotID             *string            `json:"slot_id"`
	AllowedEvents      []string           `json:"allowed_events"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	EnteredAt          *time.Time         `json:"entered_at"`
	HandlingFinishedAt *time.Time         `json:"handling_finished_at"`
	CompletedAt        *time.Time         `json:"completed_at"`
	ExitedAt           *time.Time         `json:"exited_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID        string             `json:"id"`
	Event     string             `json:"event"`
	FromState domain.TicketState `json:"from_state"`
	ToState   domain.TicketState `json:"to_state"`
	ActorID   string             `json:"actor_id"`
	ActorRole domain.Role        `json:"actor_role"`
	SlotID    *string            `json:"slot_id"`
	CreatedAt time.Time          `json:"created_at"`
}
