package model

import (
	"time"

	"gorm.io/gorm"
)

// WorkItemStatus is the lifecycle of an ordinary tracked task.
type WorkItemStatus string

const (
	WorkItemOpen       WorkItemStatus = "open"
	WorkItemInProgress WorkItemStatus = "in_progress"
	WorkItemInReview   WorkItemStatus = "in_review"
	WorkItemDone       WorkItemStatus = "done"
	WorkItemCancelled  WorkItemStatus = "cancelled"
)

// WorkItem is a tracked task inside a project.
// Relationships are managed by application logic, not DB-level associations.
type WorkItem struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"company_id" gorm:"index;not null"`
	ProjectID   uint           `json:"project_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      WorkItemStatus `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	CreatedByID uint           `json:"created_by_id" gorm:"index;not null"`
	AssigneeID  *uint          `json:"assignee_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
