// Package identity models the authenticated user the rest of the service
// trusts. Authentication itself happens upstream; by the time a User reaches
// a service it is already verified.
package identity

// Role distinguishes the three kinds of marketplace users.
type Role string

const (
	RoleClient     Role = "client"
	RoleTechnician Role = "technician"
	RoleModerator  Role = "moderator"
)

// User is the identity object handed to services by the auth middleware.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsModerator reports whether the user may act on any appointment.
func (u User) IsModerator() bool {
	return u.Role == RoleModerator
}
