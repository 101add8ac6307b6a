package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

// fixture seeds a two-company world exercising every visibility tier:
//
//	company X: superAdmin, admin, managerM, managerN, memberQ and qaR
//	           reporting to M, and memberLoose with no manager.
//	           projectAlpha managed by M, projectBeta managed by N.
//	company Y: adminY and projectGamma, for cross-tenant probes.
type fixture struct {
	store    *store.MemoryStore
	resolver *Resolver
	gate     *Gate

	companyX, companyY uint

	superAdmin, admin, managerM, managerN uint
	memberQ, qaR, memberLoose             uint
	adminY                                uint

	projectAlpha, projectBeta, projectGamma uint
}

func uintPtr(v uint) *uint { return &v }

func seedUser(t *testing.T, s *store.MemoryStore, companyID uint, email string, role model.SystemRole, managerID *uint) uint {
	t.Helper()
	user := &model.User{
		Email:      email,
		Name:       email,
		SystemRole: role,
		CompanyID:  uintPtr(companyID),
		ManagerID:  managerID,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user.ID
}

func seedProject(t *testing.T, s *store.MemoryStore, companyID uint, key string, managerIDs ...uint) uint {
	t.Helper()
	project := &model.Project{CompanyID: companyID, Key: key, Name: key}
	members := make([]model.ProjectMember, 0, len(managerIDs))
	for _, id := range managerIDs {
		members = append(members, model.ProjectMember{UserID: id, Role: model.ProjectRoleManager})
	}
	require.NoError(t, s.CreateProject(context.Background(), project, members))
	return project.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	companyX := &model.Company{Name: "acme"}
	require.NoError(t, s.CreateCompany(ctx, companyX))
	companyY := &model.Company{Name: "globex"}
	require.NoError(t, s.CreateCompany(ctx, companyY))

	f := &fixture{store: s, companyX: companyX.ID, companyY: companyY.ID}
	f.superAdmin = seedUser(t, s, f.companyX, "root@acme.test", model.RoleSuperAdmin, nil)
	f.admin = seedUser(t, s, f.companyX, "admin@acme.test", model.RoleAdmin, nil)
	f.managerM = seedUser(t, s, f.companyX, "m@acme.test", model.RoleManager, nil)
	f.managerN = seedUser(t, s, f.companyX, "n@acme.test", model.RoleManager, nil)
	f.memberQ = seedUser(t, s, f.companyX, "q@acme.test", model.RoleMember, uintPtr(f.managerM))
	f.qaR = seedUser(t, s, f.companyX, "r@acme.test", model.RoleQA, uintPtr(f.managerM))
	f.memberLoose = seedUser(t, s, f.companyX, "loose@acme.test", model.RoleMember, nil)
	f.adminY = seedUser(t, s, f.companyY, "admin@globex.test", model.RoleAdmin, nil)

	f.projectAlpha = seedProject(t, s, f.companyX, "ALPHA", f.managerM)
	f.projectBeta = seedProject(t, s, f.companyX, "BETA", f.managerN)
	f.projectGamma = seedProject(t, s, f.companyY, "GAMMA", f.adminY)

	f.resolver = NewResolver(s)
	f.gate = NewGate(s, f.resolver)
	return f
}

func (f *fixture) principal(userID uint, role model.SystemRole) Principal {
	return Principal{UserID: userID, CompanyID: f.companyX, Role: role}
}

// resolve runs the gate and fails the test on a storage fault; the memory
// store cannot fault, so any error here is a bug.
func (f *fixture) resolve(t *testing.T, ctx context.Context, p Principal, action Action, target Target) Decision {
	t.Helper()
	d, err := f.gate.Resolve(ctx, p, action, target)
	require.NoError(t, err)
	return d
}
