package model

import (
	"time"

	"gorm.io/gorm"
)

// Project belongs to exactly one company. Key is unique within the company.
// A project must keep at least one manager-role member at all times; the
// store enforces this at membership-removal time.
type Project struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"company_id" gorm:"index;not null;uniqueIndex:idx_company_key"`
	Key         string         `json:"key" gorm:"type:varchar(20);not null;uniqueIndex:idx_company_key"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
