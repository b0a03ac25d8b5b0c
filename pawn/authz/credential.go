package authz

import "slices"

// Role is a staff member's position at the counter.
type Role string

const (
	RoleTeller     Role = "TELLER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleManager    Role = "MANAGER"
)

// PermissionApproveManager grants manager approval to a non-manager role.
const PermissionApproveManager = "approve:manager"

// Credential is an authenticated staff member.
type Credential struct {
	StaffID     string   `json:"staffId"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether c carries permission.
func (c Credential) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// CanApproveAsManager reports whether c may give manager approval.
func (c Credential) CanApproveAsManager() bool {
	return c.Role == RoleManager || c.HasPermission(PermissionApproveManager)
}
