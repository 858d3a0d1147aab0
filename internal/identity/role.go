package identity

import "strings"

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleAdmin      Role = "ADMIN"
	RoleSalonOwner Role = "SALON_OWNER"
)

// Valid checks if the role is a known value.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin || r == RoleSalonOwner
}

// RoleFromString normalizes a free-text role token from any credential
// source onto the closed role set. It is total: unknown, empty, or absent
// values map to CUSTOMER, never an error. Provider prefixes ("ROLE_",
// "COGNITO_") and casing differences are stripped before matching.
func RoleFromString(raw string) Role {
	if raw == "" {
		return RoleCustomer
	}

	clean := strings.ToUpper(raw)
	clean = strings.ReplaceAll(clean, "ROLE_", "")
	clean = strings.ReplaceAll(clean, "COGNITO_", "")
	clean = strings.TrimSpace(clean)

	switch clean {
	case "SALON_OWNER", "SALONOWNER":
		return RoleSalonOwner
	case "ADMIN", "ADMINISTRATOR":
		return RoleAdmin
	default:
		return RoleCustomer
	}
}
