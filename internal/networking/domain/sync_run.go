package domain

import (
	"time"

	"gorm.io/datatypes"
)

// MaxReportedErrors bounds the error strings kept per sync run.
const MaxReportedErrors = 5

// SyncRun records one pass of the pipeline over a user's recent mail.
type SyncRun struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	UserID             string         `json:"user_id" gorm:"index:idx_sync_run_user;size:64;not null"`
	Trigger            string         `json:"trigger" gorm:"size:32"`
	StartedAt          time.Time      `json:"started_at" gorm:"index:idx_sync_run_user"`
	FinishedAt         time.Time      `json:"finished_at"`
	MessagesProcessed  int            `json:"messages_processed"`
	NetworkingMessages int            `json:"networking_messages"`
	Skipped            int            `json:"skipped"`
	Failed             int            `json:"failed"`
	Errors             datatypes.JSON `json:"errors" gorm:"type:json"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "gmail_sync_runs"
}

// SyncReport summarizes a finished sync for callers of the sync API.
type SyncReport struct {
	RunID              string    `json:"run_id"`
	UserID             string    `json:"user_id"`
	MessagesProcessed  int       `json:"messages_processed"`
	NetworkingMessages int       `json:"networking_messages"`
	Skipped            int       `json:"skipped"`
	Failed             int       `json:"failed"`
	Errors             []string  `json:"errors"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
}

// Add folds one message result into the report.
func (r *SyncReport) Add(messageID string, res Result) {
	switch res.Status {
	case ResultProcessed:
		r.NetworkingMessages++
	case ResultFailed:
		r.Failed++
		if len(r.Errors) < MaxReportedErrors {
			r.Errors = append(r.Errors, messageID+": "+res.Reason)
		}
	default:
		r.Skipped++
	}
}

// SyncStatus is the connection and last-sync view for one user.
type SyncStatus struct {
	Connected   bool       `json:"connected"`
	GmailEmail  string     `json:"gmail_email,omitempty"`
	LastSync    *time.Time `json:"last_sync"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	LastRun     *SyncRun   `json:"last_run,omitempty"`
}

// AddError records a failure that is not tied to a single message.
func (r *SyncReport) AddError(msg string) {
	if len(r.Errors) < MaxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// Connection describes a user's linked Gmail account.
type Connection struct {
	UserID      string
	GmailEmail  string
	ConnectedAt time.Time
	LastSyncAt  *time.Time
}
