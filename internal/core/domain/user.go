package domain

import "time"

// Role is the closed set of account roles. Authorization logic switches
// exhaustively over these variants rather than comparing raw strings.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleResearcher  Role = "researcher"
	RoleCoordinator Role = "coordinator"
)

// ParseRole converts a raw string into a Role, reporting whether it is one
// of the known variants.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleResearcher, RoleCoordinator:
		return Role(s), true
	}
	return "", false
}

// Portal is one of the two login entry points. Accounts may only log in
// through the portal matching their role.
type Portal string

const (
	PortalUser  Portal = "user"
	PortalAdmin Portal = "admin"
)

// User models an authenticated actor in the registry.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Department   string    `json:"department,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
