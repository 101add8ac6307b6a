package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database.
// CompanyID is nullable only before the user completes registration.
// ManagerID forms the reporting line: only members and QA carry one, and it
// must point at a same-company user with the manager role.
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Email      string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password   string         `json:"-" gorm:"type:varchar(255)"`
	Name       string         `json:"name" gorm:"type:varchar(100)"`
	SystemRole SystemRole     `json:"system_role" gorm:"type:varchar(20);not null;default:'member'"`
	CompanyID  *uint          `json:"company_id,omitempty" gorm:"index"`
	ManagerID  *uint          `json:"manager_id,omitempty" gorm:"index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
