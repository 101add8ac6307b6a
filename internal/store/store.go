package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist among non-deleted
	// rows of the requested company. Callers must not distinguish "absent"
	// from "outside the caller's company".
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an optimistic version check loses a race
	// with a concurrent writer. The caller's intended write is discarded.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrLastManager is returned when removing a membership would leave the
	// project without any manager-role member.
	ErrLastManager = errors.New("project must keep at least one manager")

	// ErrDuplicateMember is returned when adding a membership that already
	// exists for the (project, user) pair.
	ErrDuplicateMember = errors.New("user is already a member of the project")
)

// Store is the narrow persistence contract consumed by the authorization,
// custody and audit layers. Lookups are company-scoped and consider only
// non-deleted rows. Mutators that guard a structural invariant (last
// manager, duplicate membership, SuperAdmin swap, ticket version) perform
// the check and the write inside a single transaction.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, company *model.Company) error
	CompanyByID(ctx context.Context, id uint) (*model.Company, error)

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, companyID, userID uint) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UsersByCompany(ctx context.Context, companyID uint) ([]model.User, error)
	UsersByManager(ctx context.Context, companyID, managerID uint) ([]model.User, error)
	SoftDeleteUser(ctx context.Context, companyID, userID uint) error

	// TransferSuperAdmin demotes the current SuperAdmin to Admin and
	// promotes the target in the same transaction, so the company never
	// holds zero or two SuperAdmins. Returns ErrConflict if fromUserID is
	// no longer the SuperAdmin by commit time.
	TransferSuperAdmin(ctx context.Context, companyID, fromUserID, toUserID uint) error

	// Projects
	CreateProject(ctx context.Context, project *model.Project, members []model.ProjectMember) error
	ProjectByID(ctx context.Context, companyID, projectID uint) (*model.Project, error)
	ProjectsByCompany(ctx context.Context, companyID uint) ([]model.Project, error)
	MembersByProject(ctx context.Context, projectID uint) ([]model.ProjectMember, error)
	MembershipsByUser(ctx context.Context, userID uint) ([]model.ProjectMember, error)
	AddProjectMember(ctx context.Context, member *model.ProjectMember) error
	RemoveProjectMember(ctx context.Context, projectID, userID uint) error

	// Work items
	CreateWorkItem(ctx context.Context, item *model.WorkItem) error
	WorkItemByID(ctx context.Context, companyID, itemID uint) (*model.WorkItem, error)
	WorkItemsByProjects(ctx context.Context, companyID uint, projectIDs []uint) ([]model.WorkItem, error)
	UpdateWorkItem(ctx context.Context, item *model.WorkItem) error
	SoftDeleteWorkItem(ctx context.Context, companyID, itemID uint) error

	// File tickets. The CAS mutators expect the ticket argument to carry
	// the new field values with Version still at the value that was read;
	// the store bumps Version on success and returns ErrConflict when the
	// stored version no longer matches.
	CreateFileTicket(ctx context.Context, ticket *model.FileTicket) error
	FileTicketByID(ctx context.Context, companyID, ticketID uint) (*model.FileTicket, error)
	TransferFileTicket(ctx context.Context, ticket *model.FileTicket, transfer *model.FileTicketTransfer) error
	ReceiveFileTicket(ctx context.Context, ticket *model.FileTicket, receivedAt time.Time) error
	UpdateFileTicket(ctx context.Context, ticket *model.FileTicket) error

	// LoseFileTicket declares an in-transit ticket lost: the version-checked
	// status update and the ResolvedAt stamp on the single open transfer row
	// commit together, so no open row survives a ticket that left transit.
	LoseFileTicket(ctx context.Context, ticket *model.FileTicket, resolvedAt time.Time) error

	TransfersByTicket(ctx context.Context, ticketID uint) ([]model.FileTicketTransfer, error)

	// Activity log (append-only)
	AppendActivity(ctx context.Context, entry *model.ActivityLog) error
	ActivitiesByCompany(ctx context.Context, companyID uint, limit int) ([]model.ActivityLog, error)
}
