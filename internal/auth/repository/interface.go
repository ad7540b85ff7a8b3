package repository

import (
	"context"
	"time"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
)

// UserRepository reads Ripple users
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	// FindByEmail matches case-insensitively
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
}

// GmailTokenRepository stores linked Gmail accounts and pending OAuth states
type GmailTokenRepository interface {
	// Save inserts or replaces the user's grant
	Save(ctx context.Context, token *authdomain.GmailToken) error
	FindByUserID(ctx context.Context, userID string) (*authdomain.GmailToken, error)
	FindByGmailEmail(ctx context.Context, email string) (*authdomain.GmailToken, error)
	ListConnected(ctx context.Context) ([]authdomain.GmailToken, error)
	UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken, tokenType string, expiry *time.Time) error
	UpdateHistoryID(ctx context.Context, userID string, historyID uint64) error
	MarkSynced(ctx context.Context, userID string, at time.Time) error
	Delete(ctx context.Context, userID string) error

	SaveState(ctx context.Context, state *authdomain.OAuthState) error
	// ConsumeState deletes and returns an unexpired state, or nil
	ConsumeState(ctx context.Context, state string, now time.Time) (*authdomain.OAuthState, error)
}
