package domain

import "errors"

var (
	ErrNotConnected   = errors.New("gmail account not connected")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotFound       = errors.New("not found")
)
