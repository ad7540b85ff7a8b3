package domain

import "time"

// Contact is a networking counterparty of one mailbox owner.
// Rows are only created for addresses referenced by at least one networking message.
type Contact struct {
	Email                 string    `json:"email" gorm:"primaryKey;size:320"`
	UserID                string    `json:"user_id" gorm:"primaryKey;size:64"`
	Name                  *string   `json:"name,omitempty"`
	LastContactTS         int64     `json:"last_contact_ts" gorm:"column:last_contact_ts;not null"`
	HasReachedOut         bool      `json:"has_reached_out" gorm:"not null"`
	HasContactResponded   bool      `json:"has_contact_responded" gorm:"not null"`
	HasScheduledMeeting   bool      `json:"has_scheduled_meeting" gorm:"not null"`
	AwaitingReplyFromUser bool      `json:"awaiting_reply_from_user" gorm:"not null"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Contact) TableName() string {
	return "gmail_contacts"
}

// DisplayName returns the stored name, or the email when no name is known.
func (c *Contact) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return c.Email
}

// Checklist holds the relationship-progress flags derived for a contact.
type Checklist struct {
	HasReachedOut         bool `json:"has_reached_out"`
	HasContactResponded   bool `json:"has_contact_responded"`
	HasScheduledMeeting   bool `json:"has_scheduled_meeting"`
	AwaitingReplyFromUser bool `json:"awaiting_reply_from_user"`
}
