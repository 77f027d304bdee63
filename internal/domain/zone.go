package domain

import "fmt"

// Zone groups slots of the yard.
type Zone struct {
	ID       string
	Name     string
	Capacity int
}

// Slot is a bounded physical space inside a zone.
type Slot struct {
	ID        string
	ZoneID    string
	Row       int
	Column    int
	Tier      int
	Available bool
}

// Label renders the slot position, e.g. "R02-C07-T1".
func (s Slot) Label() string {
	return fmt.Sprintf("R%02d-C%02d-T%d", s.Row, s.Column, s.Tier)
}

// Ship is reference data for vessels.
type Ship struct {
	ID           string
	Name         string
	ShippingLine string
}
