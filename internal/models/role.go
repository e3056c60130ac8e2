package models

// Role is an authorization role stored on the user row.
type Role string

// Known roles.
const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	}
	return false
}
