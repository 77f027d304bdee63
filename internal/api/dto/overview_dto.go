package dto

import (
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// NotificationResponse represents a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	TicketID  *string   `json:"ticket_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientDashboardResponse summarizes one client.
type ClientDashboardResponse struct {
	Counts   map[domain.TicketState]int `json:"counts"`
	Active   int                        `json:"active"`
	Finished int                        `json:"finished"`
	Vehicles int                        `json:"vehicles"`
	Unread   int                        `json:"unread_notifications"`
	Recent   []TicketResponse           `json:"recent"`
}

// AdminDashboardResponse summarizes the terminal.
type AdminDashboardResponse struct {
	Counts     map[domain.TicketState]int `json:"counts"`
	Users      map[domain.Role]int        `json:"users"`
	Containers int                        `json:"containers"`
	FreeSlots  int                        `json:"free_slots"`
	HeldSlots  int                        `json:"held_slots"`
	Zones      []ZoneResponse             `json:"zones"`
}

// AdvanceResponse describes one simulated transition.
type AdvanceResponse struct {
	TicketID string             `json:"ticket_id"`
	Code     string             `json:"code"`
	Event    string             `json:"event"`
	From     domain.TicketState `json:"from"`
	To       domain.TicketState `json:"to"`
	SlotID   string             `json:"slot_id,omitempty"`
	At       time.Time          `json:"at"`
}

// MonitorResponse is the turn monitor view.
type MonitorResponse struct {
	Tickets   []TicketResponse           `json:"tickets"`
	Counts    map[domain.TicketState]int `json:"counts"`
	FreeSlots int                        `json:"free_slots"`
	Now       time.Time                  `json:"now"`
	Refreshed time.Time                  `json:"refreshed_at"`
	Last      *AdvanceResponse           `json:"last_advance"`
}
