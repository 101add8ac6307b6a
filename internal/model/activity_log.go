package model

import "time"

// ActivityLog is an immutable audit row. Every state-changing operation
// appends exactly one; rows are never updated or deleted.
type ActivityLog struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CompanyID    uint      `json:"company_id" gorm:"index;not null"`
	Action       string    `json:"action" gorm:"type:varchar(50);not null"`
	EntityType   string    `json:"entity_type" gorm:"type:varchar(50);not null;index"`
	EntityID     uint      `json:"entity_id" gorm:"not null;index"`
	OldValue     string    `json:"old_value,omitempty" gorm:"type:text"`
	NewValue     string    `json:"new_value,omitempty" gorm:"type:text"`
	ActingUserID uint      `json:"acting_user_id" gorm:"index;not null"`
	CreatedAt    time.Time `json:"created_at"`
}
