// Package authz holds the single authorization policy. Role and
// ownership checks live here so services never repeat inline role
// comparisons.
package authz

// Role is the caller's role as asserted by the auth layer.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Caller identifies the authenticated user making a request.
type Caller struct {
	ID   string
	Role Role
}

// Action is the scope a caller needs for an operation.
type Action int

const (
	// ActionManageOwned requires the caller to own the resource, or admin.
	ActionManageOwned Action = iota
	// ActionSelf requires the caller to be the subject of the resource,
	// or admin.
	ActionSelf
	// ActionAdmin requires the admin role.
	ActionAdmin
)

// Allow is the policy: given the caller, the resource owner's id, and
// the required action, decide access. Admins pass everything.
func Allow(c Caller, ownerID string, action Action) bool {
	if c.Role == RoleAdmin {
		return true
	}
	switch action {
	case ActionManageOwned, ActionSelf:
		return c.ID != "" && c.ID == ownerID
	default:
		return false
	}
}
