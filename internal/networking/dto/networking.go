package dto

import "github.com/abbywylie/Ripple/internal/networking/domain"

type SyncQueuedResponse struct {
	Queued bool   `json:"queued"`
	UserID string `json:"user_id"`
}

type ContactListResponse struct {
	Contacts []domain.Contact `json:"contacts"`
	Total    int              `json:"total"`
}

type ThreadMessagesResponse struct {
	ThreadID string           `json:"thread_id"`
	Messages []domain.Message `json:"messages"`
}
