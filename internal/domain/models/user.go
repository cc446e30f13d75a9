package models

import "time"

// Role is the closed set of permission levels a user can hold.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// ParseRole maps a stored string onto the Role enumeration.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleViewer, RoleEditor:
		return Role(s), true
	}
	return "", false
}

func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleEditor
}

// CanEdit reports whether the role is allowed to mutate inventory
// and view the activity log.
func (r Role) CanEdit() bool {
	return r == RoleEditor
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
