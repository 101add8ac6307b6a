package model

import (
	"time"

	"gorm.io/gorm"
)

// ProjectMember represents the association between projects and users.
// A user may hold independent roles on different projects; the pair
// (ProjectID, UserID) is unique.
type ProjectMember struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ProjectID uint           `json:"project_id" gorm:"not null;uniqueIndex:idx_project_user"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_project_user"`
	Role      ProjectRole    `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
