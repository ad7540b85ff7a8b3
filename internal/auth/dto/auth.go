package dto

import "time"

type AuthorizationURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

type WatchRequest struct {
	TopicName string `json:"topic_name"`
}

type WatchResponse struct {
	TopicName string `json:"topic_name"`
	HistoryID uint64 `json:"history_id"`
}

type ConnectionResponse struct {
	Connected   bool      `json:"connected"`
	GmailEmail  string    `json:"gmail_email"`
	ConnectedAt time.Time `json:"connected_at"`
}
