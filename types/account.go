package types

import "time"

// Role is the authorization level an account holds.
type Role string

// Supported roles. Admin and PHQ-KLA are unrestricted; the remaining roles
// are tied to a single station.
const (
	RoleAdmin        Role = "admin"
	RolePHQKLA       Role = "phq-kla"
	RoleClerk        Role = "clerk"
	RoleReceptionist Role = "receptionist"
	RoleOfficer      Role = "officer"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleAdmin, RolePHQKLA, RoleClerk, RoleReceptionist, RoleOfficer}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePHQKLA, RoleClerk, RoleReceptionist, RoleOfficer:
		return true
	}
	return false
}

// Unrestricted reports whether the role may see every return and submit
// for any station.
func (r Role) Unrestricted() bool {
	return r == RoleAdmin || r == RolePHQKLA
}

// Restricted reports whether the role is bound to a single station.
func (r Role) Restricted() bool {
	return r == RoleClerk || r == RoleReceptionist || r == RoleOfficer
}

// CanManageUsers reports whether the role may open user management.
func (r Role) CanManageUsers() bool {
	return r.Unrestricted()
}

// Account represents a login in the returns system.
type Account struct {
	// Identifier is the unique, email-shaped login name.
	Identifier string `json:"identifier" db:"identifier"`

	// PasswordHash stores the bcrypt hash of the account secret.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role is fixed at creation and only changes through an administrative edit.
	Role Role `json:"role" db:"role"`

	// Station is set for restricted roles.
	Station string `json:"station,omitempty" db:"station"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
