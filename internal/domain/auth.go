package domain

// SessionContext is the caller identity handed to every core operation.
type SessionContext struct {
	UserID string
	Role   Role
}

// IsClient reports whether the session belongs to a client.
func (s SessionContext) IsClient() bool { return s.Role == RoleClient }

// IsStaff reports whether the session belongs to an operator or admin.
func (s SessionContext) IsStaff() bool {
	return s.Role == RoleOperator || s.Role == RoleAdmin
}

// HasRole reports whether the session role is one of allowed.
func (s SessionContext) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if s.Role == r {
			return true
		}
	}
	return false
}
