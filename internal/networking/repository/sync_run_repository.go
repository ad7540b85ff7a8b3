package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/abbywylie/Ripple/internal/networking/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncRunRepository stores the history of sync passes
type SyncRunRepository interface {
	// Save records a finished sync report and returns its run id
	Save(ctx context.Context, trigger string, report *domain.SyncReport) (string, error)
	// Latest returns the most recent run of a user, or nil
	Latest(ctx context.Context, userID string) (*domain.SyncRun, error)
}

type syncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) Save(ctx context.Context, trigger string, report *domain.SyncReport) (string, error) {
	errs := report.Errors
	if errs == nil {
		errs = []string{}
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}

	run := domain.SyncRun{
		ID:                 uuid.New().String(),
		UserID:             report.UserID,
		Trigger:            trigger,
		StartedAt:          report.StartedAt,
		FinishedAt:         report.FinishedAt,
		MessagesProcessed:  report.MessagesProcessed,
		NetworkingMessages: report.NetworkingMessages,
		Skipped:            report.Skipped,
		Failed:             report.Failed,
		Errors:             datatypes.JSON(raw),
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return "", err
	}
	return run.ID, nil
}

func (r *syncRunRepository) Latest(ctx context.Context, userID string) (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
