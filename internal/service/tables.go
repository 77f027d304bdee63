package service

import (
	"strconv"
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/query"
)

const timeLayout = "2006-01-02 15:04"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TicketTable drives ticket list views.
var TicketTable = query.Table[domain.Ticket]{
	Columns: []query.Column[domain.Ticket]{
		query.Text("code", "Code", func(t domain.Ticket) string { return t.Code }),
		query.Text("state", "State", func(t domain.Ticket) string { return string(t.State) }),
		query.Text("container_id", "Container", func(t domain.Ticket) string { return t.ContainerID }),
		query.Text("plate", "Plate", func(t domain.Ticket) string { return t.Plate }),
		query.Text("driver", "Driver", func(t domain.Ticket) string { return t.Driver }),
		query.Text("transporter", "Transporter", func(t domain.Ticket) string { return t.Transporter }),
		query.Text("shift", "Shift", func(t domain.Ticket) string { return t.Shift }),
		query.Text("slot_id", "Slot", func(t domain.Ticket) string { return deref(t.SlotID) }),
		query.Time("created_at", "Created", timeLayout, func(t domain.Ticket) time.Time { return t.CreatedAt }),
		query.Time("updated_at", "Updated", timeLayout, func(t domain.Ticket) time.Time { return t.UpdatedAt }),
		query.OptionalTime("entered_at", "Entry", timeLayout, "-", func(t domain.Ticket) *time.Time { return t.EnteredAt }),
		query.OptionalTime("exited_at", "Exit", timeLayout, "-", func(t domain.Ticket) *time.Time { return t.ExitedAt }),
		query.Time("last_movement", "Last movement", timeLayout, func(t domain.Ticket) time.Time { return t.LastMovement() }),
	},
	SearchKeys: []string{"code", "state", "container_id", "plate", "driver", "transporter"},
}

// ContainerTable drives container list views.
var ContainerTable = query.Table[domain.Container]{
	Columns: []query.Column[domain.Container]{
		query.Text("code", "Code", func(c domain.Container) string { return c.Code }),
		query.Text("type", "Type", func(c domain.Container) string { return c.Type }),
		query.Text("dimensions", "Dimensions", func(c domain.Container) string { return c.Dimensions }),
		query.Ordered("weight_kg", "Weight (kg)", func(c domain.Container) float64 { return c.WeightKg },
			func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) }),
		query.Text("shipping_line", "Shipping line", func(c domain.Container) string { return c.ShippingLine }),
		query.Text("location", "Location", func(c domain.Container) string { return c.Location }),
		query.Time("created_at", "Created", timeLayout, func(c domain.Container) time.Time { return c.CreatedAt }),
	},
	SearchKeys: []string{"code", "type", "shipping_line", "location"},
}

// FleetTable drives fleet list views.
var FleetTable = query.Table[domain.FleetVehicle]{
	Columns: []query.Column[domain.FleetVehicle]{
		query.Text("plate", "Plate", func(v domain.FleetVehicle) string { return v.Plate }),
		query.Text("driver", "Driver", func(v domain.FleetVehicle) string { return v.Driver }),
		query.Text("vehicle_type", "Type", func(v domain.FleetVehicle) string { return v.VehicleType }),
		query.Text("status", "Status", func(v domain.FleetVehicle) string { return string(v.Status) }),
		query.Time("created_at", "Created", timeLayout, func(v domain.FleetVehicle) time.Time { return v.CreatedAt }),
	},
	SearchKeys: []string{"plate", "driver", "vehicle_type"},
}

// UserTable drives user list views.
var UserTable = query.Table[domain.User]{
	Columns: []query.Column[domain.User]{
		query.Text("name", "Name", func(u domain.User) string { return u.Name }),
		query.Text("email", "Email", func(u domain.User) string { return u.Email }),
		query.Text("company", "Company", func(u domain.User) string { return u.Company }),
		query.Text("role", "Role", func(u domain.User) string { return string(u.Role) }),
		query.Field("active", "Active", func(u domain.User) bool { return u.Active }, strconv.FormatBool),
		query.Time("created_at", "Created", timeLayout, func(u domain.User) time.Time { return u.CreatedAt }),
	},
	SearchKeys: []string{"name", "email", "company", "role"},
}
