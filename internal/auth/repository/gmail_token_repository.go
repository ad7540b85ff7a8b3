package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gmailTokenRepository struct {
	db *gorm.DB
}

func NewGmailTokenRepository(db *gorm.DB) GmailTokenRepository {
	return &gmailTokenRepository{db: db}
}

func (r *gmailTokenRepository) Save(ctx context.Context, token *authdomain.GmailToken) error {
	token.GmailEmail = strings.ToLower(token.GmailEmail)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gmail_email", "access_token", "refresh_token", "token_type",
			"expiry", "scopes", "history_id", "connected_at", "updated_at",
		}),
	}).Create(token).Error
}

func (r *gmailTokenRepository) FindByUserID(ctx context.Context, userID string) (*authdomain.GmailToken, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *gmailTokenRepository) FindByGmailEmail(ctx context.Context, email string) (*authdomain.GmailToken, error) {
	return r.first(r.db.WithContext(ctx).Where("gmail_email = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (r *gmailTokenRepository) first(q *gorm.DB) (*authdomain.GmailToken, error) {
	var token authdomain.GmailToken
	if err := q.First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *gmailTokenRepository) ListConnected(ctx context.Context) ([]authdomain.GmailToken, error) {
	var tokens []authdomain.GmailToken
	err := r.db.WithContext(ctx).
		Where("refresh_token <> '' OR access_token <> ''").
		Order("connected_at ASC").
		Find(&tokens).Error
	return tokens, err
}

func (r *gmailTokenRepository) UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken, tokenType string, expiry *time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   tokenType,
		"expiry":       expiry,
		"updated_at":   time.Now(),
	}
	// Google omits the refresh token on refresh responses
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&authdomain.GmailToken{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *gmailTokenRepository) UpdateHistoryID(ctx context.Context, userID string, historyID uint64) error {
	return r.db.WithContext(ctx).Model(&authdomain.GmailToken{}).
		Where("user_id = ? AND history_id < ?", userID, historyID).
		Update("history_id", historyID).Error
}

func (r *gmailTokenRepository) MarkSynced(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&authdomain.GmailToken{}).Where("user_id = ?", userID).Update("last_sync_at", at).Error
}

func (r *gmailTokenRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&authdomain.GmailToken{}).Error
}

func (r *gmailTokenRepository) SaveState(ctx context.Context, state *authdomain.OAuthState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// expired states are cleaned up whenever a new one is issued
		if err := tx.Where("expires_at < ?", time.Now()).Delete(&authdomain.OAuthState{}).Error; err != nil {
			return err
		}
		return tx.Create(state).Error
	})
}

func (r *gmailTokenRepository) ConsumeState(ctx context.Context, state string, now time.Time) (*authdomain.OAuthState, error) {
	var found *authdomain.OAuthState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s authdomain.OAuthState
		if err := tx.Where("state = ?", state).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		res := tx.Where("state = ?", state).Delete(&authdomain.OAuthState{})
		if res.Error != nil {
			return res.Error
		}
		// a concurrent callback already used it
		if res.RowsAffected == 0 || s.ExpiresAt.Before(now) {
			return nil
		}
		found = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
