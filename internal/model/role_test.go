package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemRoleRank(t *testing.T) {
	assert.Equal(t, 0, RoleMember.Rank())
	assert.Equal(t, 1, RoleQA.Rank())
	assert.Equal(t, 2, RoleManager.Rank())
	assert.Equal(t, 3, RoleAdmin.Rank())
	assert.Equal(t, 4, RoleSuperAdmin.Rank())
	assert.Equal(t, -1, SystemRole("owner").Rank())
	assert.Equal(t, -1, SystemRole("").Rank())
}

func TestProjectRoleRank(t *testing.T) {
	assert.Equal(t, 0, ProjectRoleViewer.Rank())
	assert.Equal(t, 1, ProjectRoleMember.Rank())
	assert.Equal(t, 2, ProjectRoleManager.Rank())
	assert.Equal(t, 3, ProjectRoleAdmin.Rank())
	assert.Equal(t, -1, ProjectRole("lead").Rank())
}

func TestCanManage(t *testing.T) {
	tests := []struct {
		name   string
		actor  SystemRole
		target SystemRole
		want   bool
	}{
		{"admin creates manager", RoleAdmin, RoleManager, true},
		{"admin creates admin", RoleAdmin, RoleAdmin, false},
		{"manager creates member", RoleManager, RoleMember, true},
		{"manager creates qa", RoleManager, RoleQA, true},
		{"manager creates manager", RoleManager, RoleManager, false},
		{"member creates member", RoleMember, RoleMember, false},
		{"superadmin creates admin", RoleSuperAdmin, RoleAdmin, true},
		{"superadmin touches superadmin", RoleSuperAdmin, RoleSuperAdmin, true},
		{"admin touches superadmin", RoleAdmin, RoleSuperAdmin, false},
		{"manager touches superadmin", RoleManager, RoleSuperAdmin, false},
		{"unknown actor", SystemRole("owner"), RoleMember, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManage(tt.actor, tt.target))
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleQA.Valid())
	assert.False(t, SystemRole("root").Valid())
	assert.True(t, ProjectRoleViewer.Valid())
	assert.False(t, ProjectRole("").Valid())
}
