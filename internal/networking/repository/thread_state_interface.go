package repository

import (
	"context"

	"github.com/abbywylie/Ripple/internal/networking/domain"
)

// ThreadStateRepository is the durable per-(user, thread) and per-(user, contact)
// state used by the networking pipeline. Every key is scoped by user id.
type ThreadStateRepository interface {
	// MessageExists reports whether a message was already stored for the user
	MessageExists(ctx context.Context, gmailID, userID string) (bool, error)
	// GetThreadNetworkingStatus returns nil when the thread has never been seen
	GetThreadNetworkingStatus(ctx context.Context, threadID, userID string) (*bool, error)
	// GetThread returns nil, nil when the thread does not exist
	GetThread(ctx context.Context, threadID, userID string) (*domain.Thread, error)

	// UpsertContact inserts the contact or merges name and last contact time
	UpsertContact(ctx context.Context, userID, email, name string, lastContactTS int64) error
	// UpsertThread inserts the thread or merges the message into its metadata
	UpsertThread(ctx context.Context, in domain.ThreadUpsert) error
	// InsertMessage stores a networking message; existing rows are left untouched
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// SetMeetingScheduled flips the thread's meeting flag to true
	SetMeetingScheduled(ctx context.Context, threadID, userID string) error

	// ListThreadDirections returns the stored directions of a thread, oldest first
	ListThreadDirections(ctx context.Context, threadID, userID string) ([]domain.Direction, error)
	// ListContactDirections returns the stored directions of a contact, oldest first
	ListContactDirections(ctx context.Context, email, userID string) ([]domain.Direction, error)
	// ContactHasScheduledMeeting reports whether any thread of the contact has a meeting
	ContactHasScheduledMeeting(ctx context.Context, email, userID string) (bool, error)
	// UpdateContactChecklist persists recomputed checklist flags
	UpdateContactChecklist(ctx context.Context, email, userID string, checklist domain.Checklist) error

	// ListContacts returns the user's contacts, most recent first
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
	// GetContact returns nil, nil when the contact does not exist
	GetContact(ctx context.Context, email, userID string) (*domain.Contact, error)
	// ListThreadsByContact returns the contact's threads, most recent first
	ListThreadsByContact(ctx context.Context, email, userID string) ([]domain.Thread, error)
	// ListMessagesByThread returns the stored messages of a thread, oldest first
	ListMessagesByThread(ctx context.Context, threadID, userID string) ([]domain.Message, error)
}
