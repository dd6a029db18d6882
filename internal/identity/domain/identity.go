package domain

// Role is the caller's platform role carried in the access token.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleInstructor  Role = "instructor"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Identity is an authenticated caller resolved per request.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity holds the platform admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
