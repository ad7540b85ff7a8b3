package domain

import (
	"time"

	"gorm.io/datatypes"
)

// GmailToken is the OAuth grant of a user's linked Gmail account. Access and
// refresh tokens are stored encrypted when TOKEN_ENCRYPTION_KEY is set.
type GmailToken struct {
	UserID       string         `json:"user_id" gorm:"primaryKey;size:64"`
	GmailEmail   string         `json:"gmail_email" gorm:"size:320;index;not null"`
	AccessToken  string         `json:"-" gorm:"type:text"`
	RefreshToken string         `json:"-" gorm:"type:text"`
	TokenType    string         `json:"token_type" gorm:"size:32"`
	Expiry       *time.Time     `json:"expiry"`
	Scopes       datatypes.JSON `json:"scopes" gorm:"type:json"`
	HistoryID    uint64         `json:"history_id"`
	ConnectedAt  time.Time      `json:"connected_at"`
	LastSyncAt   *time.Time     `json:"last_sync_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (GmailToken) TableName() string {
	return "gmail_oauth_tokens"
}

// OAuthState binds a consent redirect to the user who started it.
type OAuthState struct {
	State     string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:64;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (OAuthState) TableName() string {
	return "gmail_oauth_states"
}
