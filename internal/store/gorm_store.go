package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
)

// GormStore implements Store on top of a gorm database handle.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateCompany inserts a new company.
func (s *GormStore) CreateCompany(ctx context.Context, company *model.Company) error {
	return s.db.WithContext(ctx).Create(company).Error
}

// CompanyByID loads a company among non-deleted rows.
func (s *GormStore) CompanyByID(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// CreateUser inserts a new user.
func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// UserByID loads a non-deleted user scoped to the company.
func (s *GormStore) UserByID(ctx context.Context, companyID, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", userID, companyID).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserByEmail loads a non-deleted user by email, without company scoping.
// Used by login only, before a principal exists.
func (s *GormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UsersByCompany lists all non-deleted users of the company.
func (s *GormStore) UsersByCompany(ctx context.Context, companyID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id").
		Find(&users).Error
	return users, err
}

// UsersByManager lists non-deleted users reporting to the given manager.
func (s *GormStore) UsersByManager(ctx context.Context, companyID, managerID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND manager_id = ?", companyID, managerID).
		Order("id").
		Find(&users).Error
	return users, err
}

// SoftDeleteUser marks the user deleted. References to the user survive.
func (s *GormStore) SoftDeleteUser(ctx context.Context, companyID, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", userID, companyID).
		Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransferSuperAdmin swaps the SuperAdmin designation inside one transaction.
func (s *GormStore) TransferSuperAdmin(ctx context.Context, companyID, fromUserID, toUserID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check against committed state: the demotion only applies if the
		// source still holds the designation.
		demote := tx.Model(&model.User{}).
			Where("id = ? AND company_id = ? AND system_role = ?", fromUserID, companyID, model.RoleSuperAdmin).
			Update("system_role", model.RoleAdmin)
		if demote.Error != nil {
			return demote.Error
		}
		if demote.RowsAffected == 0 {
			return ErrConflict
		}

		// The designation sits outside the reporting tree, so the promoted
		// user's manager link is severed in the same transaction.
		promote := tx.Model(&model.User{}).
			Where("id = ? AND company_id = ?", toUserID, companyID).
			Updates(map[string]interface{}{"system_role": model.RoleSuperAdmin, "manager_id": nil})
		if promote.Error != nil {
			return promote.Error
		}
		if promote.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateProject inserts the project and its initial memberships atomically.
func (s *GormStore) CreateProject(ctx context.Context, project *model.Project, members []model.ProjectMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].ProjectID = project.ID
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ProjectByID loads a non-deleted project scoped to the company.
func (s *GormStore) ProjectByID(ctx context.Context, companyID, projectID uint) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", projectID, companyID).
		First(&project).Error
	if err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// ProjectsByCompany lists all non-deleted projects of the company.
func (s *GormStore) ProjectsByCompany(ctx context.Context, companyID uint) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id").
		Find(&projects).Error
	return projects, err
}

// MembersByProject lists non-deleted memberships of the project.
func (s *GormStore) MembersByProject(ctx context.Context, projectID uint) ([]model.ProjectMember, error) {
	var members []model.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Find(&members).Error
	return members, err
}

// MembershipsByUser lists non-deleted memberships held by the user.
func (s *GormStore) MembershipsByUser(ctx context.Context, userID uint) ([]model.ProjectMember, error) {
	var members []model.ProjectMember
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&members).Error
	return members, err
}

// AddProjectMember inserts a membership, rejecting duplicates inside the
// same transaction as the insert.
func (s *GormStore) AddProjectMember(ctx context.Context, member *model.ProjectMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", member.ProjectID, member.UserID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateMember
		}
		return tx.Create(member).Error
	})
}

// RemoveProjectMember deletes a membership. The last-manager check runs
// against the committed membership rows inside the removal transaction, so
// two concurrent removals cannot both pass a stale count.
func (s *GormStore) RemoveProjectMember(ctx context.Context, projectID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member model.ProjectMember
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error
		if err != nil {
			return translate(err)
		}

		if member.Role == model.ProjectRoleManager {
			var managers int64
			err := tx.Model(&model.ProjectMember{}).
				Where("project_id = ? AND role = ?", projectID, model.ProjectRoleManager).
				Count(&managers).Error
			if err != nil {
				return err
			}
			if managers <= 1 {
				return ErrLastManager
			}
		}

		return tx.Delete(&member).Error
	})
}

// CreateWorkItem inserts a new work item.
func (s *GormStore) CreateWorkItem(ctx context.Context, item *model.WorkItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// WorkItemByID loads a non-deleted work item scoped to the company.
func (s *GormStore) WorkItemByID(ctx context.Context, companyID, itemID uint) (*model.WorkItem, error) {
	var item model.WorkItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", itemID, companyID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// WorkItemsByProjects lists non-deleted work items of the given projects.
func (s *GormStore) WorkItemsByProjects(ctx context.Context, companyID uint, projectIDs []uint) ([]model.WorkItem, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var items []model.WorkItem
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND project_id IN ?", companyID, projectIDs).
		Order("id").
		Find(&items).Error
	return items, err
}

// UpdateWorkItem saves the item's mutable fields.
func (s *GormStore) UpdateWorkItem(ctx context.Context, item *model.WorkItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

// SoftDeleteWorkItem marks the work item deleted.
func (s *GormStore) SoftDeleteWorkItem(ctx context.Context, companyID, itemID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", itemID, companyID).
		Delete(&model.WorkItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFileTicket inserts a new file ticket at version 1.
func (s *GormStore) CreateFileTicket(ctx context.Context, ticket *model.FileTicket) error {
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	return s.db.WithContext(ctx).Create(ticket).Error
}

// FileTicketByID loads a non-deleted ticket scoped to the company.
func (s *GormStore) FileTicketByID(ctx context.Context, companyID, ticketID uint) (*model.FileTicket, error) {
	var ticket model.FileTicket
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", ticketID, companyID).
		First(&ticket).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

// casUpdateTicket writes the ticket's custody fields guarded by the version
// the caller read. Zero affected rows means a concurrent writer won.
func casUpdateTicket(tx *gorm.DB, ticket *model.FileTicket) error {
	result := tx.Model(&model.FileTicket{}).
		Where("id = ? AND version = ?", ticket.ID, ticket.Version).
		Updates(map[string]interface{}{
			"status":            ticket.Status,
			"current_holder_id": ticket.CurrentHolderID,
			"version":           ticket.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	ticket.Version++
	return nil
}

// TransferFileTicket applies a custody hand-off: the version-checked ticket
// update and the new transfer row commit together or not at all.
func (s *GormStore) TransferFileTicket(ctx context.Context, ticket *model.FileTicket, transfer *model.FileTicketTransfer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdateTicket(tx, ticket); err != nil {
			return err
		}
		return tx.Create(transfer).Error
	})
}

// ReceiveFileTicket acknowledges the in-flight transfer: stamps ReceivedAt
// on the single open transfer row and moves the ticket forward, atomically.
func (s *GormStore) ReceiveFileTicket(ctx context.Context, ticket *model.FileTicket, receivedAt time.Time) error {
	versionRead := ticket.Version
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdateTicket(tx, ticket); err != nil {
			return err
		}
		stamp := tx.Model(&model.FileTicketTransfer{}).
			Where("file_ticket_id = ? AND received_at IS NULL AND resolved_at IS NULL", ticket.ID).
			Update("received_at", receivedAt)
		if stamp.Error != nil {
			return stamp.Error
		}
		if stamp.RowsAffected != 1 {
			// The open-transfer invariant would be broken; abort the commit.
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		ticket.Version = versionRead
	}
	return err
}

// LoseFileTicket declares an in-transit ticket lost, resolving the single
// open transfer row in the same commit as the status update.
func (s *GormStore) LoseFileTicket(ctx context.Context, ticket *model.FileTicket, resolvedAt time.Time) error {
	versionRead := ticket.Version
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdateTicket(tx, ticket); err != nil {
			return err
		}
		stamp := tx.Model(&model.FileTicketTransfer{}).
			Where("file_ticket_id = ? AND received_at IS NULL AND resolved_at IS NULL", ticket.ID).
			Update("resolved_at", resolvedAt)
		if stamp.Error != nil {
			return stamp.Error
		}
		if stamp.RowsAffected != 1 {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		ticket.Version = versionRead
	}
	return err
}

// UpdateFileTicket applies a holder-neutral status change under the same
// version check as transfers.
func (s *GormStore) UpdateFileTicket(ctx context.Context, ticket *model.FileTicket) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return casUpdateTicket(tx, ticket)
	})
}

// TransfersByTicket lists the custody chain, oldest first.
func (s *GormStore) TransfersByTicket(ctx context.Context, ticketID uint) ([]model.FileTicketTransfer, error) {
	var transfers []model.FileTicketTransfer
	err := s.db.WithContext(ctx).
		Where("file_ticket_id = ?", ticketID).
		Order("id").
		Find(&transfers).Error
	return transfers, err
}

// AppendActivity inserts an audit row. Rows are never updated or deleted.
func (s *GormStore) AppendActivity(ctx context.Context, entry *model.ActivityLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ActivitiesByCompany lists the newest audit rows for the company.
func (s *GormStore) ActivitiesByCompany(ctx context.Context, companyID uint, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []model.ActivityLog
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
