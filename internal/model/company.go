package model

import (
	"time"

	"gorm.io/gorm"
)

// Company represents the tenant model stored in the database
// This is the isolation boundary of the multi-tenant architecture:
// no entity reachable from a company may reference another company.
type Company struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
