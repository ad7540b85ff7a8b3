package domain

import "strings"

// LabelSent is the Gmail system label carried by outbound messages.
const LabelSent = "SENT"

// Address is one parsed (display-name, email) pair of a From/To header.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MailMessage is a normalized Gmail message as consumed by the pipeline.
type MailMessage struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	LabelIDs     []string  `json:"label_ids"`
	Subject      string    `json:"subject"`
	From         []Address `json:"from"`
	To           []Address `json:"to"`
	BodyText     string    `json:"body_text"`
	InternalDate int64     `json:"internal_date"` // epoch milliseconds
}

// HasLabel reports whether the message carries the given label id.
func (m *MailMessage) HasLabel(label string) bool {
	for _, l := range m.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}

// ContactName returns the display name attached to email in the From or To
// headers, or "" when none is present.
func (m *MailMessage) ContactName(email string) string {
	target := strings.ToLower(email)
	for _, list := range [][]Address{m.From, m.To} {
		for _, a := range list {
			if a.Email != "" && strings.ToLower(a.Email) == target && strings.TrimSpace(a.Name) != "" {
				return strings.TrimSpace(a.Name)
			}
		}
	}
	return ""
}

// ThreadTurn is one message of a freshly fetched thread, used for meeting detection.
type ThreadTurn struct {
	Timestamp int64     `json:"timestamp"`
	Direction Direction `json:"direction"`
	Subject   string    `json:"subject"`
	BodyText  string    `json:"body_text"`
}

// Mailbox identifies the authenticated owner whose mail is processed.
type Mailbox struct {
	UserID string
	Email  string
}

// IsGmailAddress reports whether email belongs to a consumer Gmail domain.
func IsGmailAddress(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	return strings.HasSuffix(e, "@gmail.com") || strings.HasSuffix(e, "@googlemail.com")
}
