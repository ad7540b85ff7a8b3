package domain

import (
	"errors"
	"strconv"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidState    = errors.New("invalid or expired OAuth state")
	ErrNotGmailAddress = errors.New("only @gmail.com or @googlemail.com accounts can be connected")
	ErrNotConfigured   = errors.New("Gmail OAuth is not configured")
)

// User is a row of the Ripple backend's users table. This service only reads it.
type User struct {
	ID        int64     `json:"id" gorm:"column:user_id;primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_date_time"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// Key is the user id as stored in the gmail_* tables
func (u *User) Key() string {
	return strconv.FormatInt(u.ID, 10)
}
