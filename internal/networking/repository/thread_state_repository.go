package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// threadStateRepository implements ThreadStateRepository interface
type threadStateRepository struct {
	db *gorm.DB
}

// NewThreadStateRepository creates a new instance of threadStateRepository
func NewThreadStateRepository(db *gorm.DB) ThreadStateRepository {
	return &threadStateRepository{
		db: db,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// forUpdate locks the selected row on dialects that support row locks.
func (r *threadStateRepository) forUpdate(tx *gorm.DB) *gorm.DB {
	if database.IsPostgres(r.db) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// retryOnDuplicate runs fn again when a concurrent writer inserted the same
// key first; the second attempt finds the row and takes the update path.
func retryOnDuplicate(fn func() error) error {
	err := fn()
	if database.IsUniqueViolation(err) {
		return fn()
	}
	return err
}

func (r *threadStateRepository) MessageExists(ctx context.Context, gmailID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("gmail_id = ? AND user_id = ?", gmailID, userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *threadStateRepository) GetThreadNetworkingStatus(ctx context.Context, threadID, userID string) (*bool, error) {
	thread, err := r.GetThread(ctx, threadID, userID)
	if err != nil || thread == nil {
		return nil, err
	}
	status := thread.IsNetworking
	return &status, nil
}

func (r *threadStateRepository) GetThread(ctx context.Context, threadID, userID string) (*domain.Thread, error) {
	var thread domain.Thread
	err := r.db.WithContext(ctx).Where("thread_id = ? AND user_id = ?", threadID, userID).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

// UpsertContact keeps the freshest non-empty name and the latest contact time.
func (r *threadStateRepository) UpsertContact(ctx context.Context, userID, email, name string, lastContactTS int64) error {
	email = normalizeEmail(email)
	if email == "" || userID == "" {
		return nil
	}
	name = strings.TrimSpace(name)

	return retryOnDuplicate(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing domain.Contact
			err := r.forUpdate(tx).Where("email = ? AND user_id = ?", email, userID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				contact := domain.Contact{
					Email:         email,
					UserID:        userID,
					LastContactTS: lastContactTS,
				}
				if name != "" {
					contact.Name = &name
				}
				return tx.Create(&contact).Error
			}
			if err != nil {
				return err
			}

			updates := map[string]interface{}{
				"last_contact_ts": max(existing.LastContactTS, lastContactTS),
				"updated_at":      time.Now(),
			}
			if name != "" {
				updates["name"] = name
			}
			return tx.Model(&domain.Contact{}).
				Where("email = ? AND user_id = ?", email, userID).
				Updates(updates).Error
		})
	})
}

// UpsertThread merges a message into the thread row. Every merge is
// order-independent: subject and first timestamp keep the stored value,
// last timestamp is a max and the networking flag is an OR.
func (r *threadStateRepository) UpsertThread(ctx context.Context, in domain.ThreadUpsert) error {
	if in.ThreadID == "" || in.UserID == "" {
		return nil
	}

	// non-networking threads never record a counterparty
	contactEmail := ""
	if in.IsNetworking {
		contactEmail = normalizeEmail(in.ContactEmail)
	}
	subject := strings.TrimSpace(in.Subject)

	return retryOnDuplicate(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing domain.Thread
			err := r.forUpdate(tx).Where("thread_id = ? AND user_id = ?", in.ThreadID, in.UserID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				thread := domain.Thread{
					ThreadID:       in.ThreadID,
					UserID:         in.UserID,
					IsNetworking:   in.IsNetworking,
					FirstMessageTS: in.MessageTS,
					LastUpdatedTS:  in.MessageTS,
				}
				if contactEmail != "" {
					thread.ContactEmail = &contactEmail
				}
				if subject != "" {
					thread.Subject = &subject
				}
				return tx.Create(&thread).Error
			}
			if err != nil {
				return err
			}

			updates := map[string]interface{}{
				"last_updated_ts": max(existing.LastUpdatedTS, in.MessageTS),
				"updated_at":      time.Now(),
			}
			if existing.ContactEmail == nil && contactEmail != "" {
				updates["contact_email"] = contactEmail
			}
			if (existing.Subject == nil || *existing.Subject == "") && subject != "" {
				updates["subject"] = subject
			}
			if existing.FirstMessageTS == 0 && in.MessageTS != 0 {
				updates["first_message_ts"] = in.MessageTS
			}
			if in.IsNetworking && !existing.IsNetworking {
				updates["is_networking"] = true
			}
			return tx.Model(&domain.Thread{}).
				Where("thread_id = ? AND user_id = ?", in.ThreadID, in.UserID).
				Updates(updates).Error
		})
	})
}

func (r *threadStateRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	if msg.GmailID == "" || msg.UserID == "" {
		return nil
	}
	exists, err := r.MessageExists(ctx, msg.GmailID, msg.UserID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	msg.ContactEmail = normalizeEmail(msg.ContactEmail)
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *threadStateRepository) SetMeetingScheduled(ctx context.Context, threadID, userID string) error {
	return r.db.WithContext(ctx).Model(&domain.Thread{}).
		Where("thread_id = ? AND user_id = ? AND meeting_scheduled = ?", threadID, userID, false).
		Updates(map[string]interface{}{
			"meeting_scheduled": true,
			"updated_at":        time.Now(),
		}).Error
}

func (r *threadStateRepository) ListThreadDirections(ctx context.Context, threadID, userID string) ([]domain.Direction, error) {
	var directions []domain.Direction
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Order("timestamp ASC, created_at ASC").
		Pluck("direction", &directions).Error
	return directions, err
}

func (r *threadStateRepository) ListContactDirections(ctx context.Context, email, userID string) ([]domain.Direction, error) {
	var directions []domain.Direction
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("contact_email = ? AND user_id = ?", normalizeEmail(email), userID).
		Order("timestamp ASC, created_at ASC").
		Pluck("direction", &directions).Error
	return directions, err
}

func (r *threadStateRepository) ContactHasScheduledMeeting(ctx context.Context, email, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Thread{}).
		Where("contact_email = ? AND user_id = ? AND meeting_scheduled = ?", normalizeEmail(email), userID, true).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *threadStateRepository) UpdateContactChecklist(ctx context.Context, email, userID string, checklist domain.Checklist) error {
	return r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("email = ? AND user_id = ?", normalizeEmail(email), userID).
		Updates(map[string]interface{}{
			"has_reached_out":          checklist.HasReachedOut,
			"has_contact_responded":    checklist.HasContactResponded,
			"has_scheduled_meeting":    checklist.HasScheduledMeeting,
			"awaiting_reply_from_user": checklist.AwaitingReplyFromUser,
			"updated_at":               time.Now(),
		}).Error
}

func (r *threadStateRepository) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_contact_ts DESC").
		Find(&contacts).Error
	return contacts, err
}

func (r *threadStateRepository) GetContact(ctx context.Context, email, userID string) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).Where("email = ? AND user_id = ?", normalizeEmail(email), userID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *threadStateRepository) ListThreadsByContact(ctx context.Context, email, userID string) ([]domain.Thread, error) {
	var threads []domain.Thread
	err := r.db.WithContext(ctx).
		Where("contact_email = ? AND user_id = ?", normalizeEmail(email), userID).
		Order("last_updated_ts DESC").
		Find(&threads).Error
	return threads, err
}

func (r *threadStateRepository) ListMessagesByThread(ctx context.Context, threadID, userID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Order("timestamp ASC, created_at ASC").
		Find(&messages).Error
	return messages, err
}
