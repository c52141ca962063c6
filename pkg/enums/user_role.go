package enums

import (
	"fmt"
	"strings"
)

// UserRole is the account role. Masters and admins moderate the market.
type UserRole string

const (
	UserRoleAdventurer UserRole = "ADVENTURER"
	UserRoleMaster     UserRole = "MASTER"
	UserRoleAdmin      UserRole = "ADMIN"
)

var validUserRoles = []UserRole{
	UserRoleAdventurer,
	UserRoleMaster,
	UserRoleAdmin,
}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role bypasses class restrictions and may moderate.
func (r UserRole) IsPrivileged() bool {
	return r == UserRoleMaster || r == UserRoleAdmin
}

// ParseUserRole accepts the canonical names plus the legacy ROLE_ prefixed
// Portuguese names (ROLE_AVENTUREIRO, ROLE_MESTRE, ROLE_ADMIN).
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "ROLE_")
	switch normalized {
	case "AVENTUREIRO":
		return UserRoleAdventurer, nil
	case "MESTRE":
		return UserRoleMaster, nil
	}
	role := UserRole(normalized)
	if role.IsValid() {
		return role, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
