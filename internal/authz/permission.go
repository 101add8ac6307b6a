package authz

import (
	"context"
	"fmt"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

// Action identifies an intended mutation or read that must pass the gate
// before it touches storage.
type Action string

const (
	ActionCreateAdmin        Action = "create_admin"
	ActionCreateManager      Action = "create_manager"
	ActionCreateQA           Action = "create_qa"
	ActionCreateMember       Action = "create_member"
	ActionDeleteUser         Action = "delete_user"
	ActionTransferSuperAdmin Action = "transfer_superadmin"

	ActionCreateProject       Action = "create_project"
	ActionAddProjectMember    Action = "add_project_member"
	ActionRemoveProjectMember Action = "remove_project_member"

	ActionCreateWorkItem Action = "create_work_item"
	ActionViewWorkItem   Action = "view_work_item"
	ActionUpdateWorkItem Action = "update_work_item"
	ActionDeleteWorkItem Action = "delete_work_item"

	ActionCreateFileTicket       Action = "create_file_ticket"
	ActionViewFileTicket         Action = "view_file_ticket"
	ActionTransferFileTicket     Action = "transfer_file_ticket"
	ActionReceiveFileTicket      Action = "receive_file_ticket"
	ActionUpdateFileTicketStatus Action = "update_file_ticket_status"

	ActionViewActivity Action = "view_activity"
)

// Target carries the entities and relationship facts a rule may need.
// Only the fields relevant to the action have to be set.
type Target struct {
	User        *model.User          // user being created, deleted or promoted
	NewRole     model.SystemRole     // system role being granted on create
	Project     *model.Project       // project being acted on
	ManagerIDs  []uint               // designated managers on project create
	Member      *model.ProjectMember // membership being removed
	MemberRole  model.ProjectRole    // role of a membership being added
	WorkItem    *model.WorkItem      // work item being acted on
	Ticket      *model.FileTicket    // file ticket being acted on
	RecipientID uint                 // transfer recipient
}

// Gate resolves (principal, action, target) triples into decisions using a
// declarative rule table: an allowed-role set per action plus an optional
// relationship check. There is no per-role dispatch anywhere else; every
// mutating operation consults the gate first.
type Gate struct {
	store    store.Store
	resolver *Resolver
}

// NewGate creates a gate over the given store and resolver.
func NewGate(s store.Store, r *Resolver) *Gate {
	return &Gate{store: s, resolver: r}
}

type rule struct {
	// roles is the set of system roles allowed to attempt the action.
	// Empty means any authenticated principal may attempt it; the check
	// then decides.
	roles []model.SystemRole
	// check validates relationship facts (visibility, ownership,
	// structural invariants) once the role test has passed. A non-nil
	// error is a storage fault, never a policy outcome.
	check func(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error)
}

var ruleTable = map[Action]rule{
	ActionCreateAdmin: {
		roles: []model.SystemRole{model.RoleAdmin, model.RoleSuperAdmin},
		check: checkCreateUser,
	},
	ActionCreateManager: {
		roles: []model.SystemRole{model.RoleAdmin, model.RoleSuperAdmin},
		check: checkCreateUser,
	},
	ActionCreateQA: {
		roles: []model.SystemRole{model.RoleManager, model.RoleAdmin, model.RoleSuperAdmin},
		check: checkCreateUser,
	},
	ActionCreateMember: {
		roles: []model.SystemRole{model.RoleManager, model.RoleAdmin, model.RoleSuperAdmin},
		check: checkCreateUser,
	},
	ActionDeleteUser: {
		check: checkDeleteUser,
	},
	ActionTransferSuperAdmin: {
		roles: []model.SystemRole{model.RoleSuperAdmin},
		check: checkTransferSuperAdmin,
	},
	ActionCreateProject: {
		roles: []model.SystemRole{model.RoleAdmin, model.RoleSuperAdmin},
		check: checkCreateProject,
	},
	ActionAddProjectMember: {
		check: checkManageMembers,
	},
	ActionRemoveProjectMember: {
		check: checkRemoveMember,
	},
	ActionCreateWorkItem: {
		roles: []model.SystemRole{model.RoleQA, model.RoleManager, model.RoleAdmin, model.RoleSuperAdmin},
		check: checkProjectVisible,
	},
	ActionViewWorkItem: {
		check: checkViewWorkItem,
	},
	ActionUpdateWorkItem: {
		check: checkUpdateWorkItem,
	},
	ActionDeleteWorkItem: {
		check: checkDeleteWorkItem,
	},
	ActionCreateFileTicket: {
		roles: []model.SystemRole{model.RoleQA, model.RoleManager, model.RoleAdmin, model.RoleSuperAdmin},
		check: checkFileTicketProject,
	},
	ActionViewFileTicket: {
		check: checkViewFileTicket,
	},
	ActionTransferFileTicket: {
		check: checkTransferFileTicket,
	},
	ActionReceiveFileTicket: {
		check: checkReceiveFileTicket,
	},
	ActionUpdateFileTicketStatus: {
		check: checkUpdateFileTicketStatus,
	},
	ActionViewActivity: {
		roles: []model.SystemRole{model.RoleAdmin, model.RoleSuperAdmin},
	},
}

// Resolve decides whether the principal may perform the action on the
// target. The decision is pure with respect to storage: it reads, never
// writes. An unauthenticated principal has empty visibility and can only
// ever be denied. A non-nil error is a storage fault — the action was
// neither allowed nor denied, and the caller must not fall through to a
// policy response.
func (g *Gate) Resolve(ctx context.Context, p Principal, action Action, t Target) (Decision, error) {
	r, ok := ruleTable[action]
	if !ok {
		return Deny(DenyForbidden, fmt.Sprintf("unknown action %q", action)), nil
	}

	if !p.Authenticated() {
		return Deny(DenyUnauthorized, "no authenticated principal"), nil
	}

	if len(r.roles) > 0 && !roleAllowed(r.roles, p.Role) {
		return Deny(DenyForbidden, fmt.Sprintf("role %s may not %s", p.Role, action)), nil
	}

	if r.check != nil {
		return r.check(g, ctx, p, t)
	}
	return Allow(), nil
}

func roleAllowed(roles []model.SystemRole, role model.SystemRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func checkCreateUser(g *Gate, _ context.Context, p Principal, t Target) (Decision, error) {
	if !t.NewRole.Valid() {
		return Deny(DenyBadRequest, "invalid system role"), nil
	}
	// The role sets above already gate who may attempt each create action;
	// CanManage closes the remaining hole of granting a rank at or above
	// your own, and keeps the SuperAdmin designation out of reach entirely.
	if !model.CanManage(p.Role, t.NewRole) {
		return Deny(DenyForbidden, fmt.Sprintf("role %s may not grant role %s", p.Role, t.NewRole)), nil
	}
	return Allow(), nil
}

func checkDeleteUser(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if t.User == nil {
		return Deny(DenyNotFound, "user not found"), nil
	}
	visible, err := g.resolver.VisibleUsers(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if !visible[t.User.ID] {
		return Deny(DenyNotFound, "user not found"), nil
	}
	if t.User.ID == p.UserID {
		return Deny(DenyBadRequest, "cannot delete yourself"), nil
	}
	if !model.CanManage(p.Role, t.User.SystemRole) {
		return Deny(DenyForbidden, fmt.Sprintf("role %s may not delete role %s", p.Role, t.User.SystemRole)), nil
	}
	return Allow(), nil
}

func checkTransferSuperAdmin(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if t.User == nil || t.User.CompanyID == nil || *t.User.CompanyID != p.CompanyID {
		return Deny(DenyNotFound, "user not found"), nil
	}
	if t.User.ID == p.UserID {
		return Deny(DenyBadRequest, "designation already held"), nil
	}
	// A target with direct reports would leave their reports pointing at a
	// SuperAdmin instead of a Manager; they must be reassigned first.
	reports, err := g.store.UsersByManager(ctx, p.CompanyID, t.User.ID)
	if err != nil {
		return Decision{}, err
	}
	if len(reports) > 0 {
		return Deny(DenyBadRequest, "transfer target still has direct reports"), nil
	}
	return Allow(), nil
}

func checkCreateProject(_ *Gate, _ context.Context, _ Principal, t Target) (Decision, error) {
	if len(t.ManagerIDs) == 0 {
		return Deny(DenyBadRequest, "project requires at least one designated manager"), nil
	}
	return Allow(), nil
}

// checkManageMembers allows company admins, or users holding a
// manager-or-above membership on the project itself.
func checkManageMembers(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if t.Project == nil || t.Project.CompanyID != p.CompanyID {
		return Deny(DenyNotFound, "project not found"), nil
	}
	if t.MemberRole != "" && !t.MemberRole.Valid() {
		return Deny(DenyBadRequest, "invalid project role"), nil
	}
	if p.Role.Rank() >= model.RoleAdmin.Rank() {
		return Allow(), nil
	}

	visible, err := g.resolver.VisibleProjects(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if !visible[t.Project.ID] {
		return Deny(DenyNotFound, "project not found"), nil
	}
	memberships, err := g.store.MembershipsByUser(ctx, p.UserID)
	if err != nil {
		return Decision{}, err
	}
	for _, membership := range memberships {
		if membership.ProjectID == t.Project.ID && membership.Role.Rank() >= model.ProjectRoleManager.Rank() {
			return Allow(), nil
		}
	}
	return Deny(DenyForbidden, "requires a manager role on the project"), nil
}

func checkRemoveMember(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkManageMembers(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}
	if t.Member == nil {
		return Deny(DenyNotFound, "membership not found"), nil
	}
	// Pre-check against the current read; the store repeats this against
	// committed state inside the removal transaction.
	if t.Member.Role == model.ProjectRoleManager {
		members, err := g.store.MembersByProject(ctx, t.Member.ProjectID)
		if err != nil {
			return Decision{}, err
		}
		managers := 0
		for _, member := range members {
			if member.Role == model.ProjectRoleManager {
				managers++
			}
		}
		if managers <= 1 {
			return Deny(DenyBadRequest, "removal would leave the project without a manager"), nil
		}
	}
	return Allow(), nil
}

func checkProjectVisible(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if t.Project == nil || t.Project.CompanyID != p.CompanyID {
		return Deny(DenyNotFound, "project not found"), nil
	}
	visible, err := g.resolver.VisibleProjects(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if !visible[t.Project.ID] {
		return Deny(DenyNotFound, "project not found"), nil
	}
	return Allow(), nil
}

func checkFileTicketProject(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if t.Project == nil {
		// Tickets may live outside any project; company scope suffices.
		return Allow(), nil
	}
	return checkProjectVisible(g, ctx, p, t)
}

func checkViewWorkItem(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	ok, err := g.resolver.CanSeeWorkItem(ctx, p, t.WorkItem)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Deny(DenyNotFound, "work item not found"), nil
	}
	return Allow(), nil
}

func checkUpdateWorkItem(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkViewWorkItem(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}
	if p.Role.Rank() >= model.RoleManager.Rank() {
		return Allow(), nil
	}
	if t.WorkItem.CreatedByID == p.UserID {
		return Allow(), nil
	}
	if t.WorkItem.AssigneeID != nil && *t.WorkItem.AssigneeID == p.UserID {
		return Allow(), nil
	}
	return Deny(DenyForbidden, "only managers, the creator or the assignee may update a work item"), nil
}

func checkDeleteWorkItem(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkViewWorkItem(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}
	if p.Role.Rank() >= model.RoleManager.Rank() {
		return Allow(), nil
	}
	if p.Role == model.RoleQA && t.WorkItem.CreatedByID == p.UserID {
		return Allow(), nil
	}
	return Deny(DenyForbidden, "only managers or the creating QA may delete a work item"), nil
}

func checkViewFileTicket(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	ok, err := g.resolver.CanSeeFileTicket(ctx, p, t.Ticket)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Deny(DenyNotFound, "file ticket not found"), nil
	}
	return Allow(), nil
}

// checkTransferFileTicket requires the caller to be the current holder, or
// to hold manager-or-above rank for an administrative override. The
// recipient must resolve to a user visible to the caller; an invisible
// recipient is a malformed transfer target, not an existence leak, because
// the caller already proved they can see the ticket.
func checkTransferFileTicket(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkViewFileTicket(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}

	isHolder := t.Ticket.CurrentHolderID != nil && *t.Ticket.CurrentHolderID == p.UserID
	if !isHolder && p.Role.Rank() < model.RoleManager.Rank() {
		return Deny(DenyForbidden, "only the current holder or a manager may transfer a file ticket"), nil
	}

	if t.RecipientID == 0 {
		return Deny(DenyBadRequest, "transfer requires a recipient"), nil
	}
	if t.RecipientID == p.UserID && isHolder {
		return Deny(DenyBadRequest, "ticket is already held by the recipient"), nil
	}
	visible, err := g.resolver.VisibleUsers(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if !visible[t.RecipientID] {
		return Deny(DenyBadRequest, "transfer recipient is not a known user"), nil
	}
	return Allow(), nil
}

func checkReceiveFileTicket(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkViewFileTicket(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}
	if t.Ticket.CurrentHolderID == nil || *t.Ticket.CurrentHolderID != p.UserID {
		return Deny(DenyForbidden, "only the designated recipient may acknowledge receipt"), nil
	}
	return Allow(), nil
}

func checkUpdateFileTicketStatus(g *Gate, ctx context.Context, p Principal, t Target) (Decision, error) {
	if d, err := checkViewFileTicket(g, ctx, p, t); err != nil || !d.Allowed {
		return d, err
	}
	if p.Role.Rank() >= model.RoleManager.Rank() {
		return Allow(), nil
	}
	if t.Ticket.CurrentHolderID != nil && *t.Ticket.CurrentHolderID == p.UserID {
		return Allow(), nil
	}
	return Deny(DenyForbidden, "only the current holder or a manager may update ticket status"), nil
}
