package domain

import "time"

// Notification is addressed to one user.
type Notification struct {
	ID        string
	UserID    string
	TicketID  *string
	Message   string
	Read      bool
	CreatedAt time.Time
}
