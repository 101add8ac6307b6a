package model

// SystemRole is a user's role within their company. Roles form a strict
// privilege order: Member < QA < Manager < Admin < SuperAdmin.
type SystemRole string

const (
	RoleMember     SystemRole = "member"
	RoleQA         SystemRole = "qa"
	RoleManager    SystemRole = "manager"
	RoleAdmin      SystemRole = "admin"
	RoleSuperAdmin SystemRole = "superadmin"
)

var systemRoleRanks = map[SystemRole]int{
	RoleMember:     0,
	RoleQA:         1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Rank returns the ordinal of the role, or -1 for an unknown role so that
// unrecognized input never outranks a real role.
func (r SystemRole) Rank() int {
	if rank, ok := systemRoleRanks[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the role is one of the five system roles.
func (r SystemRole) Valid() bool {
	_, ok := systemRoleRanks[r]
	return ok
}

// CanManage reports whether a user with role `actor` may create or alter a
// user with role `target`. Strictly-greater rank is required, and only a
// SuperAdmin may touch the SuperAdmin designation at all.
func CanManage(actor, target SystemRole) bool {
	if target == RoleSuperAdmin {
		return actor == RoleSuperAdmin
	}
	return actor.Rank() > target.Rank()
}

// ProjectRole is a user's role within a single project, independent of
// their system role and of roles they hold on other projects.
type ProjectRole string

const (
	ProjectRoleViewer  ProjectRole = "viewer"
	ProjectRoleMember  ProjectRole = "member"
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleAdmin   ProjectRole = "admin"
)

var projectRoleRanks = map[ProjectRole]int{
	ProjectRoleViewer:  0,
	ProjectRoleMember:  1,
	ProjectRoleManager: 2,
	ProjectRoleAdmin:   3,
}

// Rank returns the ordinal of the project role, or -1 for an unknown role.
func (r ProjectRole) Rank() int {
	if rank, ok := projectRoleRanks[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the role is one of the four project roles.
func (r ProjectRole) Valid() bool {
	_, ok := projectRoleRanks[r]
	return ok
}
