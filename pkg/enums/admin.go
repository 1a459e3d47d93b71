package enums

import "fmt"

// AdminRole maps to the admin_role enum in Postgres.
type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleStoreAdmin AdminRole = "store_admin"
)

var validAdminRoles = []AdminRole{
	AdminRoleSuperAdmin,
	AdminRoleStoreAdmin,
}

func (r AdminRole) String() string {
	return string(r)
}

func (r AdminRole) IsValid() bool {
	for _, candidate := range validAdminRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAdminRole converts raw input into an AdminRole.
func ParseAdminRole(value string) (AdminRole, error) {
	for _, candidate := range validAdminRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin role %q", value)
}

// AdminStatus maps to the admin_status enum in Postgres.
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "active"
	AdminStatusInactive AdminStatus = "inactive"
)

func (s AdminStatus) IsValid() bool {
	return s == AdminStatusActive || s == AdminStatusInactive
}

// ParseAdminStatus converts raw input into an AdminStatus.
func ParseAdminStatus(value string) (AdminStatus, error) {
	status := AdminStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid admin status %q", value)
	}
	return status, nil
}
