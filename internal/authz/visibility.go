package authz

import (
	"context"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

// Resolver computes the set of entities a principal may read. It never
// mutates anything, and it fails closed: a missing company, manager or
// project reference yields an empty set, not default visibility.
//
// All store lookups consider only non-deleted entities; that filter is part
// of the Store contract, restated here because visibility must never
// diverge from it.
type Resolver struct {
	store store.Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// VisibleProjects returns the project ids the principal may read.
//
// Admin and SuperAdmin see every project in their company. Managers see the
// projects they hold a membership on. Members and QA see the projects their
// reporting manager holds a membership on — inherited through exactly one
// hop, never recursively up a management chain.
func (r *Resolver) VisibleProjects(ctx context.Context, p Principal) (map[uint]bool, error) {
	visible := map[uint]bool{}
	if !p.Authenticated() {
		return visible, nil
	}

	companyProjects, err := r.store.ProjectsByCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	inCompany := make(map[uint]bool, len(companyProjects))
	for _, project := range companyProjects {
		inCompany[project.ID] = true
	}

	switch p.Role {
	case model.RoleAdmin, model.RoleSuperAdmin:
		return inCompany, nil

	case model.RoleManager:
		return r.membershipProjects(ctx, p.UserID, inCompany)

	case model.RoleMember, model.RoleQA:
		self, err := r.store.UserByID(ctx, p.CompanyID, p.UserID)
		if err != nil {
			if err == store.ErrNotFound {
				return visible, nil
			}
			return nil, err
		}
		if self.ManagerID == nil {
			return visible, nil
		}
		// The manager must still be a live user of the same company.
		if _, err := r.store.UserByID(ctx, p.CompanyID, *self.ManagerID); err != nil {
			if err == store.ErrNotFound {
				return visible, nil
			}
			return nil, err
		}
		return r.membershipProjects(ctx, *self.ManagerID, inCompany)
	}

	return visible, nil
}

// membershipProjects collects the user's membership projects, intersected
// with the principal's company so a stray cross-company membership row can
// never widen visibility.
func (r *Resolver) membershipProjects(ctx context.Context, userID uint, inCompany map[uint]bool) (map[uint]bool, error) {
	memberships, err := r.store.MembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := map[uint]bool{}
	for _, membership := range memberships {
		if inCompany[membership.ProjectID] {
			visible[membership.ProjectID] = true
		}
	}
	return visible, nil
}

// VisibleUsers returns the user ids the principal may read. Admin and
// SuperAdmin see all company users; Managers see themselves and their
// direct reports; Members and QA see only themselves.
func (r *Resolver) VisibleUsers(ctx context.Context, p Principal) (map[uint]bool, error) {
	visible := map[uint]bool{}
	if !p.Authenticated() {
		return visible, nil
	}

	switch p.Role {
	case model.RoleAdmin, model.RoleSuperAdmin:
		users, err := r.store.UsersByCompany(ctx, p.CompanyID)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			visible[user.ID] = true
		}

	case model.RoleManager:
		visible[p.UserID] = true
		reports, err := r.store.UsersByManager(ctx, p.CompanyID, p.UserID)
		if err != nil {
			return nil, err
		}
		for _, user := range reports {
			visible[user.ID] = true
		}

	case model.RoleMember, model.RoleQA:
		visible[p.UserID] = true
	}

	return visible, nil
}

// CanSeeWorkItem reports whether the principal may read the work item.
// Company scope, project scope and ticket-level ownership are AND'ed:
// the item's project must be visible, and on top of that the principal
// must hold manager-or-above rank, be a direct project member, be the
// creator, or be the assignee. Role alone never crosses a project or
// company boundary.
func (r *Resolver) CanSeeWorkItem(ctx context.Context, p Principal, item *model.WorkItem) (bool, error) {
	if item == nil || !p.Authenticated() || item.CompanyID != p.CompanyID {
		return false, nil
	}

	projects, err := r.VisibleProjects(ctx, p)
	if err != nil {
		return false, err
	}
	if !projects[item.ProjectID] {
		return false, nil
	}

	if p.Role.Rank() >= model.RoleManager.Rank() {
		return true, nil
	}
	if item.CreatedByID == p.UserID {
		return true, nil
	}
	if item.AssigneeID != nil && *item.AssigneeID == p.UserID {
		return true, nil
	}

	memberships, err := r.store.MembershipsByUser(ctx, p.UserID)
	if err != nil {
		return false, err
	}
	for _, membership := range memberships {
		if membership.ProjectID == item.ProjectID {
			return true, nil
		}
	}
	return false, nil
}

// CanSeeFileTicket applies the work-item scoping rules to a file ticket:
// company boundary first, then project visibility when the ticket is bound
// to a project, then rank or ownership (creator / current holder).
func (r *Resolver) CanSeeFileTicket(ctx context.Context, p Principal, ticket *model.FileTicket) (bool, error) {
	if ticket == nil || !p.Authenticated() || ticket.CompanyID != p.CompanyID {
		return false, nil
	}

	if ticket.ProjectID != nil {
		projects, err := r.VisibleProjects(ctx, p)
		if err != nil {
			return false, err
		}
		if !projects[*ticket.ProjectID] {
			return false, nil
		}
	}

	if p.Role.Rank() >= model.RoleManager.Rank() {
		return true, nil
	}
	if ticket.CreatedByID == p.UserID {
		return true, nil
	}
	if ticket.CurrentHolderID != nil && *ticket.CurrentHolderID == p.UserID {
		return true, nil
	}
	return false, nil
}
