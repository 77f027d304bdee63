package domain

import (
	"strings"
	"time"
)

// Role enumerates the dashboard roles.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleOperator Role = "OPERATOR"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole accepts both the canonical names and the upstream spellings.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CLIENT", "CLIENTE":
		return RoleClient, true
	case "OPERATOR", "OPERARIO":
		return RoleOperator, true
	case "ADMIN", "ADMINISTRADOR":
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// RoleRecord is the reference-data row behind a Role.
type RoleRecord struct {
	ID   string
	Name string
}

// AccessLevel is reference data attached to users.
type AccessLevel struct {
	ID   string
	Name string
}

// User is a dashboard account.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Phone         string
	Company       string
	Role          Role
	AccessLevelID string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
