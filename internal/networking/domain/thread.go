package domain

import "time"

// Thread is the per-owner state of one Gmail conversation.
//
// IsNetworking is decided on the first processed message and only ever moves
// from false to true through a merge. MeetingScheduled never goes back to false.
type Thread struct {
	ThreadID         string    `json:"thread_id" gorm:"primaryKey;size:128"`
	UserID           string    `json:"user_id" gorm:"primaryKey;size:64"`
	ContactEmail     *string   `json:"contact_email,omitempty" gorm:"index:idx_thread_contact;size:320"`
	Subject          *string   `json:"subject,omitempty" gorm:"type:text"`
	IsNetworking     bool      `json:"is_networking" gorm:"not null"`
	FirstMessageTS   int64     `json:"first_message_ts" gorm:"column:first_message_ts"`
	LastUpdatedTS    int64     `json:"last_updated_ts" gorm:"column:last_updated_ts"`
	MeetingScheduled bool      `json:"meeting_scheduled" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Thread) TableName() string {
	return "gmail_threads"
}

// ThreadUpsert carries the values one processed message contributes to its thread.
type ThreadUpsert struct {
	ThreadID     string
	UserID       string
	ContactEmail string
	Subject      string
	MessageTS    int64
	IsNetworking bool
}
