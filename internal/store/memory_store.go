package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the test suite
// and local runs without a database, and honors the same transactional
// invariants as the gorm store: the mutex makes every mutator a single
// atomic unit, and the CAS mutators check the ticket version under it.
type MemoryStore struct {
	mu sync.Mutex

	companies map[uint]model.Company
	users     map[uint]model.User
	projects  map[uint]model.Project
	members   map[uint]model.ProjectMember
	workItems map[uint]model.WorkItem
	tickets   map[uint]model.FileTicket
	transfers map[uint]model.FileTicketTransfer
	activity  map[uint]model.ActivityLog

	nextID uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: map[uint]model.Company{},
		users:     map[uint]model.User{},
		projects:  map[uint]model.Project{},
		members:   map[uint]model.ProjectMember{},
		workItems: map[uint]model.WorkItem{},
		tickets:   map[uint]model.FileTicket{},
		transfers: map[uint]model.FileTicketTransfer{},
		activity:  map[uint]model.ActivityLog{},
	}
}

func (s *MemoryStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func deleted(at gorm.DeletedAt) bool {
	return at.Valid
}

func (s *MemoryStore) CreateCompany(_ context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	company.ID = s.allocID()
	company.CreatedAt = time.Now()
	s.companies[company.ID] = *company
	return nil
}

func (s *MemoryStore) CompanyByID(_ context.Context, id uint) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[id]
	if !ok || deleted(company.DeletedAt) {
		return nil, ErrNotFound
	}
	return &company, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.allocID()
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UserByID(_ context.Context, companyID, userID uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || deleted(user.DeletedAt) || user.CompanyID == nil || *user.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if !deleted(user.DeletedAt) && user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UsersByCompany(_ context.Context, companyID uint) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []model.User
	for _, user := range s.users {
		if !deleted(user.DeletedAt) && user.CompanyID != nil && *user.CompanyID == companyID {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) UsersByManager(_ context.Context, companyID, managerID uint) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []model.User
	for _, user := range s.users {
		if deleted(user.DeletedAt) || user.CompanyID == nil || *user.CompanyID != companyID {
			continue
		}
		if user.ManagerID != nil && *user.ManagerID == managerID {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) SoftDeleteUser(_ context.Context, companyID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || deleted(user.DeletedAt) || user.CompanyID == nil || *user.CompanyID != companyID {
		return ErrNotFound
	}
	user.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) TransferSuperAdmin(_ context.Context, companyID, fromUserID, toUserID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.users[fromUserID]
	if !ok || deleted(from.DeletedAt) || from.CompanyID == nil || *from.CompanyID != companyID {
		return ErrNotFound
	}
	if from.SystemRole != model.RoleSuperAdmin {
		return ErrConflict
	}
	to, ok := s.users[toUserID]
	if !ok || deleted(to.DeletedAt) || to.CompanyID == nil || *to.CompanyID != companyID {
		return ErrNotFound
	}

	from.SystemRole = model.RoleAdmin
	to.SystemRole = model.RoleSuperAdmin
	// The designation sits outside the reporting tree.
	to.ManagerID = nil
	s.users[fromUserID] = from
	s.users[toUserID] = to
	return nil
}

func (s *MemoryStore) CreateProject(_ context.Context, project *model.Project, members []model.ProjectMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project.ID = s.allocID()
	project.CreatedAt = time.Now()
	s.projects[project.ID] = *project

	for i := range members {
		members[i].ID = s.allocID()
		members[i].ProjectID = project.ID
		members[i].CreatedAt = time.Now()
		s.members[members[i].ID] = members[i]
	}
	return nil
}

func (s *MemoryStore) ProjectByID(_ context.Context, companyID, projectID uint) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok || deleted(project.DeletedAt) || project.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &project, nil
}

func (s *MemoryStore) ProjectsByCompany(_ context.Context, companyID uint) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var projects []model.Project
	for _, project := range s.projects {
		if !deleted(project.DeletedAt) && project.CompanyID == companyID {
			projects = append(projects, project)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *MemoryStore) MembersByProject(_ context.Context, projectID uint) ([]model.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membersByProjectLocked(projectID), nil
}

func (s *MemoryStore) membersByProjectLocked(projectID uint) []model.ProjectMember {
	var members []model.ProjectMember
	for _, member := range s.members {
		if !deleted(member.DeletedAt) && member.ProjectID == projectID {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

func (s *MemoryStore) MembershipsByUser(_ context.Context, userID uint) ([]model.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var members []model.ProjectMember
	for _, member := range s.members {
		if !deleted(member.DeletedAt) && member.UserID == userID {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *MemoryStore) AddProjectMember(_ context.Context, member *model.ProjectMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if !deleted(existing.DeletedAt) && existing.ProjectID == member.ProjectID && existing.UserID == member.UserID {
			return ErrDuplicateMember
		}
	}

	member.ID = s.allocID()
	member.CreatedAt = time.Now()
	s.members[member.ID] = *member
	return nil
}

func (s *MemoryStore) RemoveProjectMember(_ context.Context, projectID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *model.ProjectMember
	for _, member := range s.members {
		if !deleted(member.DeletedAt) && member.ProjectID == projectID && member.UserID == userID {
			m := member
			target = &m
			break
		}
	}
	if target == nil {
		return ErrNotFound
	}

	if target.Role == model.ProjectRoleManager {
		managers := 0
		for _, member := range s.membersByProjectLocked(projectID) {
			if member.Role == model.ProjectRoleManager {
				managers++
			}
		}
		if managers <= 1 {
			return ErrLastManager
		}
	}

	target.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.members[target.ID] = *target
	return nil
}

func (s *MemoryStore) CreateWorkItem(_ context.Context, item *model.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.allocID()
	item.CreatedAt = time.Now()
	s.workItems[item.ID] = *item
	return nil
}

func (s *MemoryStore) WorkItemByID(_ context.Context, companyID, itemID uint) (*model.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.workItems[itemID]
	if !ok || deleted(item.DeletedAt) || item.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *MemoryStore) WorkItemsByProjects(_ context.Context, companyID uint, projectIDs []uint) ([]model.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uint]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}

	var items []model.WorkItem
	for _, item := range s.workItems {
		if !deleted(item.DeletedAt) && item.CompanyID == companyID && wanted[item.ProjectID] {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemoryStore) UpdateWorkItem(_ context.Context, item *model.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workItems[item.ID]
	if !ok || deleted(existing.DeletedAt) {
		return ErrNotFound
	}
	item.UpdatedAt = time.Now()
	s.workItems[item.ID] = *item
	return nil
}

func (s *MemoryStore) SoftDeleteWorkItem(_ context.Context, companyID, itemID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.workItems[itemID]
	if !ok || deleted(item.DeletedAt) || item.CompanyID != companyID {
		return ErrNotFound
	}
	item.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.workItems[itemID] = item
	return nil
}

func (s *MemoryStore) CreateFileTicket(_ context.Context, ticket *model.FileTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket.ID = s.allocID()
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	ticket.CreatedAt = time.Now()
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) FileTicketByID(_ context.Context, companyID, ticketID uint) (*model.FileTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok || deleted(ticket.DeletedAt) || ticket.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

// casStoreTicket mirrors the gorm store's version-guarded update. Caller
// must hold the mutex.
func (s *MemoryStore) casStoreTicket(ticket *model.FileTicket) error {
	existing, ok := s.tickets[ticket.ID]
	if !ok || deleted(existing.DeletedAt) {
		return ErrNotFound
	}
	if existing.Version != ticket.Version {
		return ErrConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) TransferFileTicket(_ context.Context, ticket *model.FileTicket, transfer *model.FileTicketTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.casStoreTicket(ticket); err != nil {
		return err
	}
	transfer.ID = s.allocID()
	s.transfers[transfer.ID] = *transfer
	return nil
}

func (s *MemoryStore) ReceiveFileTicket(_ context.Context, ticket *model.FileTicket, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, hadPrior := s.tickets[ticket.ID]
	if err := s.casStoreTicket(ticket); err != nil {
		return err
	}

	stamped := 0
	for id, transfer := range s.transfers {
		if transfer.FileTicketID == ticket.ID && transfer.ReceivedAt == nil && transfer.ResolvedAt == nil {
			at := receivedAt
			transfer.ReceivedAt = &at
			s.transfers[id] = transfer
			stamped++
		}
	}
	if stamped != 1 {
		// Roll the ticket back so the failed acknowledgement leaves no
		// partial write, matching the gorm store's transaction.
		if hadPrior {
			s.tickets[ticket.ID] = prior
			ticket.Version = prior.Version
		}
		return ErrConflict
	}
	return nil
}

func (s *MemoryStore) LoseFileTicket(_ context.Context, ticket *model.FileTicket, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, hadPrior := s.tickets[ticket.ID]
	if err := s.casStoreTicket(ticket); err != nil {
		return err
	}

	stamped := 0
	for id, transfer := range s.transfers {
		if transfer.FileTicketID == ticket.ID && transfer.ReceivedAt == nil && transfer.ResolvedAt == nil {
			at := resolvedAt
			transfer.ResolvedAt = &at
			s.transfers[id] = transfer
			stamped++
		}
	}
	if stamped != 1 {
		if hadPrior {
			s.tickets[ticket.ID] = prior
			ticket.Version = prior.Version
		}
		return ErrConflict
	}
	return nil
}

func (s *MemoryStore) UpdateFileTicket(_ context.Context, ticket *model.FileTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.casStoreTicket(ticket)
}

func (s *MemoryStore) TransfersByTicket(_ context.Context, ticketID uint) ([]model.FileTicketTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transfers []model.FileTicketTransfer
	for _, transfer := range s.transfers {
		if transfer.FileTicketID == ticketID {
			transfers = append(transfers, transfer)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID < transfers[j].ID })
	return transfers, nil
}

func (s *MemoryStore) AppendActivity(_ context.Context, entry *model.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.allocID()
	entry.CreatedAt = time.Now()
	s.activity[entry.ID] = *entry
	return nil
}

func (s *MemoryStore) ActivitiesByCompany(_ context.Context, companyID uint, limit int) ([]model.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	var entries []model.ActivityLog
	for _, entry := range s.activity {
		if entry.CompanyID == companyID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
