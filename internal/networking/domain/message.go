package domain

import "time"

// Direction tells whether the mailbox owner sent or received a message.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// MaxSummaryLength caps stored message summaries, in characters.
const MaxSummaryLength = 400

// Message is a stored networking message. Rows are immutable once inserted
// and only exist for threads classified as networking.
type Message struct {
	GmailID      string    `json:"gmail_id" gorm:"primaryKey;size:128"`
	UserID       string    `json:"user_id" gorm:"primaryKey;size:64;index:idx_message_contact,priority:1;index:idx_message_thread,priority:1"`
	ThreadID     string    `json:"thread_id" gorm:"not null;size:128;index:idx_message_thread,priority:2"`
	ContactEmail string    `json:"contact_email" gorm:"size:320;index:idx_message_contact,priority:2"`
	Timestamp    int64     `json:"timestamp" gorm:"not null"`
	Direction    Direction `json:"direction" gorm:"size:16;not null"`
	Summary      string    `json:"summary" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "gmail_messages"
}
