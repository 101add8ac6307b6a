package model

import "time"

// FileTicketTransfer is one custody hand-off of a file ticket. Rows are
// append-only: after creation the only permitted change is stamping either
// ReceivedAt, when the recipient acknowledges, or ResolvedAt, when the
// ticket is declared lost in flight. Each row is stamped at most once. A
// row with neither stamp is the in-flight transfer; exactly one exists
// while the ticket is in transit, and zero otherwise.
type FileTicketTransfer struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	FileTicketID  uint       `json:"file_ticket_id" gorm:"index;not null"`
	FromUserID    *uint      `json:"from_user_id,omitempty" gorm:"index"`
	ToUserID      uint       `json:"to_user_id" gorm:"index;not null"`
	Notes         string     `json:"notes" gorm:"type:text"`
	TransferredAt time.Time  `json:"transferred_at" gorm:"not null"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
