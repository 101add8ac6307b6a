package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

func TestResolveUnauthenticated(t *testing.T) {
	f := newFixture(t)

	d := f.resolve(t, context.Background(), Principal{}, ActionCreateMember, Target{NewRole: model.RoleMember})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyUnauthorized, d.Kind)
}

func TestResolveUnknownAction(t *testing.T) {
	f := newFixture(t)

	d := f.resolve(t, context.Background(), f.principal(f.admin, model.RoleAdmin), Action("reboot"), Target{})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)
}

func TestCreateUserRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   Principal
		action  Action
		newRole model.SystemRole
		allowed bool
		kind    DenyKind
	}{
		{"admin creates manager", f.principal(f.admin, model.RoleAdmin), ActionCreateManager, model.RoleManager, true, ""},
		{"admin creates peer admin", f.principal(f.admin, model.RoleAdmin), ActionCreateAdmin, model.RoleAdmin, false, DenyForbidden},
		{"superadmin creates admin", f.principal(f.superAdmin, model.RoleSuperAdmin), ActionCreateAdmin, model.RoleAdmin, true, ""},
		{"manager creates qa", f.principal(f.managerM, model.RoleManager), ActionCreateQA, model.RoleQA, true, ""},
		{"manager creates member", f.principal(f.managerM, model.RoleManager), ActionCreateMember, model.RoleMember, true, ""},
		{"manager creates manager", f.principal(f.managerM, model.RoleManager), ActionCreateManager, model.RoleManager, false, DenyForbidden},
		{"member creates member", f.principal(f.memberQ, model.RoleMember), ActionCreateMember, model.RoleMember, false, DenyForbidden},
		{"qa creates member", f.principal(f.qaR, model.RoleQA), ActionCreateMember, model.RoleMember, false, DenyForbidden},
		{"unknown role payload", f.principal(f.admin, model.RoleAdmin), ActionCreateMember, model.SystemRole("owner"), false, DenyBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := f.resolve(t, ctx, tt.actor, tt.action, Target{NewRole: tt.newRole})
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.kind, d.Kind)
			}
		})
	}
}

func TestDeleteUserRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	load := func(id uint) *model.User {
		user, err := f.store.UserByID(ctx, f.companyX, id)
		require.NoError(t, err)
		return user
	}

	d := f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionDeleteUser, Target{User: load(f.memberQ)})
	assert.True(t, d.Allowed)

	// Deleting yourself is malformed, not forbidden.
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionDeleteUser, Target{User: load(f.admin)})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	// Equal rank cannot be deleted even when visible.
	d = f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionDeleteUser, Target{User: load(f.admin)})
	assert.True(t, d.Allowed)
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionDeleteUser, Target{User: load(f.superAdmin)})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)

	// A manager's peer is outside their visible set: NotFound, not Forbidden.
	d = f.resolve(t, ctx, f.principal(f.managerM, model.RoleManager), ActionDeleteUser, Target{User: load(f.managerN)})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)

	// Cross-tenant probe must be indistinguishable from a bogus id.
	other, err := f.store.UserByID(ctx, f.companyY, f.adminY)
	require.NoError(t, err)
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionDeleteUser, Target{User: other})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)

	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionDeleteUser, Target{})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)
}

func TestTransferSuperAdminRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target, err := f.store.UserByID(ctx, f.companyX, f.admin)
	require.NoError(t, err)

	d := f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: target})
	assert.True(t, d.Allowed)

	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionTransferSuperAdmin, Target{User: target})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)

	self, err := f.store.UserByID(ctx, f.companyX, f.superAdmin)
	require.NoError(t, err)
	d = f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: self})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	other, err := f.store.UserByID(ctx, f.companyY, f.adminY)
	require.NoError(t, err)
	d = f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: other})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)
}

func TestTransferSuperAdminTargetWithReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// M still has Q and R reporting to them; promoting M would leave those
	// reports pointing at a SuperAdmin.
	target, err := f.store.UserByID(ctx, f.companyX, f.managerM)
	require.NoError(t, err)
	d := f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: target})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	// N manages nobody, so the same transfer goes through.
	target, err = f.store.UserByID(ctx, f.companyX, f.managerN)
	require.NoError(t, err)
	d = f.resolve(t, ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: target})
	assert.True(t, d.Allowed)
}

func TestCreateProjectRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionCreateProject, Target{ManagerIDs: []uint{f.managerM}})
	assert.True(t, d.Allowed)

	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionCreateProject, Target{})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	d = f.resolve(t, ctx, f.principal(f.managerM, model.RoleManager), ActionCreateProject, Target{ManagerIDs: []uint{f.managerM}})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)
}

func TestManageMemberRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha, err := f.store.ProjectByID(ctx, f.companyX, f.projectAlpha)
	require.NoError(t, err)

	d := f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionAddProjectMember, Target{Project: alpha, MemberRole: model.ProjectRoleMember})
	assert.True(t, d.Allowed)

	// M manages alpha through their manager membership.
	d = f.resolve(t, ctx, f.principal(f.managerM, model.RoleManager), ActionAddProjectMember, Target{Project: alpha, MemberRole: model.ProjectRoleMember})
	assert.True(t, d.Allowed)

	// N cannot even see alpha, so the denial hides it.
	d = f.resolve(t, ctx, f.principal(f.managerN, model.RoleManager), ActionAddProjectMember, Target{Project: alpha, MemberRole: model.ProjectRoleMember})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)

	// Q sees alpha through M but holds no membership on it.
	d = f.resolve(t, ctx, f.principal(f.memberQ, model.RoleMember), ActionAddProjectMember, Target{Project: alpha, MemberRole: model.ProjectRoleMember})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)

	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionAddProjectMember, Target{Project: alpha, MemberRole: model.ProjectRole("lead")})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)
}

func TestRemoveLastManagerDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha, err := f.store.ProjectByID(ctx, f.companyX, f.projectAlpha)
	require.NoError(t, err)
	members, err := f.store.MembersByProject(ctx, f.projectAlpha)
	require.NoError(t, err)
	require.Len(t, members, 1)

	d := f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionRemoveProjectMember, Target{Project: alpha, Member: &members[0]})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	// With a second manager on the project the same removal is fine.
	require.NoError(t, f.store.AddProjectMember(ctx, &model.ProjectMember{
		ProjectID: f.projectAlpha, UserID: f.managerN, Role: model.ProjectRoleManager,
	}))
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionRemoveProjectMember, Target{Project: alpha, Member: &members[0]})
	assert.True(t, d.Allowed)
}

func TestWorkItemRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &model.WorkItem{
		CompanyID:   f.companyX,
		ProjectID:   f.projectAlpha,
		Title:       "verify release checksums",
		CreatedByID: f.qaR,
		AssigneeID:  uintPtr(f.memberQ),
	}
	require.NoError(t, f.store.CreateWorkItem(ctx, item))

	// The assignee may update but not delete.
	d := f.resolve(t, ctx, f.principal(f.memberQ, model.RoleMember), ActionUpdateWorkItem, Target{WorkItem: item})
	assert.True(t, d.Allowed)
	d = f.resolve(t, ctx, f.principal(f.memberQ, model.RoleMember), ActionDeleteWorkItem, Target{WorkItem: item})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)

	// The creating QA may delete their own item.
	d = f.resolve(t, ctx, f.principal(f.qaR, model.RoleQA), ActionDeleteWorkItem, Target{WorkItem: item})
	assert.True(t, d.Allowed)

	// An invisible item denies as NotFound for every verb.
	probe := Principal{UserID: f.adminY, CompanyID: f.companyY, Role: model.RoleAdmin}
	for _, action := range []Action{ActionViewWorkItem, ActionUpdateWorkItem, ActionDeleteWorkItem} {
		d = f.resolve(t, ctx, probe, action, Target{WorkItem: item})
		assert.False(t, d.Allowed)
		assert.Equal(t, DenyNotFound, d.Kind, "action %s", action)
	}

	// Members never create work items.
	alpha, err := f.store.ProjectByID(ctx, f.companyX, f.projectAlpha)
	require.NoError(t, err)
	d = f.resolve(t, ctx, f.principal(f.memberQ, model.RoleMember), ActionCreateWorkItem, Target{Project: alpha})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)
	d = f.resolve(t, ctx, f.principal(f.qaR, model.RoleQA), ActionCreateWorkItem, Target{Project: alpha})
	assert.True(t, d.Allowed)
}

func TestTransferFileTicketRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket := &model.FileTicket{
		CompanyID:       f.companyX,
		Title:           "original signed timesheets",
		Status:          "created",
		CreatedByID:     f.qaR,
		CurrentHolderID: uintPtr(f.managerM),
	}
	require.NoError(t, f.store.CreateFileTicket(ctx, ticket))

	holder := f.principal(f.managerM, model.RoleManager)

	d := f.resolve(t, ctx, holder, ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.memberQ})
	assert.True(t, d.Allowed)

	d = f.resolve(t, ctx, holder, ActionTransferFileTicket, Target{Ticket: ticket})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	d = f.resolve(t, ctx, holder, ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.managerM})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	// N is not in M's visible set, so M cannot route the ticket there.
	d = f.resolve(t, ctx, holder, ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.managerN})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyBadRequest, d.Kind)

	// The creating QA sees the ticket but holds neither the file nor rank.
	d = f.resolve(t, ctx, f.principal(f.qaR, model.RoleQA), ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.memberQ})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)

	// Admin override does not require holding the file.
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.memberQ})
	assert.True(t, d.Allowed)

	// An uninvolved member cannot even see the ticket.
	d = f.resolve(t, ctx, f.principal(f.memberLoose, model.RoleMember), ActionTransferFileTicket, Target{Ticket: ticket, RecipientID: f.memberQ})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Kind)
}

func TestReceiveFileTicketRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket := &model.FileTicket{
		CompanyID:       f.companyX,
		Title:           "archived payroll binder",
		Status:          "in_transit",
		CreatedByID:     f.managerM,
		CurrentHolderID: uintPtr(f.memberQ),
	}
	require.NoError(t, f.store.CreateFileTicket(ctx, ticket))

	d := f.resolve(t, ctx, f.principal(f.memberQ, model.RoleMember), ActionReceiveFileTicket, Target{Ticket: ticket})
	assert.True(t, d.Allowed)

	// Even an admin cannot acknowledge on the recipient's behalf.
	d = f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionReceiveFileTicket, Target{Ticket: ticket})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)
}

// failingStore wraps the fixture store and fails manager lookups, standing
// in for a database outage during gate evaluation.
type failingStore struct {
	store.Store
	err error
}

func (s *failingStore) UsersByManager(context.Context, uint, uint) ([]model.User, error) {
	return nil, s.err
}

func TestResolvePropagatesStoreFaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sentinel := errors.New("connection reset by peer")
	failing := &failingStore{Store: f.store, err: sentinel}
	gate := NewGate(failing, NewResolver(failing))

	target, err := f.store.UserByID(ctx, f.companyX, f.admin)
	require.NoError(t, err)

	// Fault inside a check's own store lookup.
	d, err := gate.Resolve(ctx, f.principal(f.superAdmin, model.RoleSuperAdmin), ActionTransferSuperAdmin, Target{User: target})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, d.Allowed)

	// Fault routed through the visibility resolver. Neither may surface as
	// a policy denial.
	d, err = gate.Resolve(ctx, f.principal(f.managerM, model.RoleManager), ActionDeleteUser, Target{User: target})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, d.Allowed)
	assert.Empty(t, d.Kind)
}

func TestViewActivityRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.resolve(t, ctx, f.principal(f.admin, model.RoleAdmin), ActionViewActivity, Target{})
	assert.True(t, d.Allowed)

	d = f.resolve(t, ctx, f.principal(f.managerM, model.RoleManager), ActionViewActivity, Target{})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyForbidden, d.Kind)
}
