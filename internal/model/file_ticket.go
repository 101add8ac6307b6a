package model

import (
	"time"

	"gorm.io/gorm"
)

// FileTicket is a physical or digital document tracked through a chain of
// custody. CurrentHolderID must be set whenever the status is in_transit,
// received or processing. Version backs the optimistic concurrency check on
// every custody transition.
type FileTicket struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CompanyID       uint           `json:"company_id" gorm:"index;not null"`
	ProjectID       *uint          `json:"project_id,omitempty" gorm:"index"`
	Title           string         `json:"title" gorm:"type:varchar(200);not null"`
	Description     string         `json:"description" gorm:"type:text"`
	Status          string         `json:"status" gorm:"type:varchar(20);not null;default:'created'"`
	CurrentHolderID *uint          `json:"current_holder_id,omitempty" gorm:"index"`
	CreatedByID     uint           `json:"created_by_id" gorm:"index;not null"`
	Version         int            `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
