package usecase

import (
	"context"

	"github.com/abbywylie/Ripple/internal/networking/domain"
)

// ClassifierOracle is the LLM boundary of the pipeline. Implementations never
// fail: they answer not networking, "" or false when anything goes wrong.
type ClassifierOracle interface {
	ClassifyAndSummarize(ctx context.Context, subject, body string) (bool, string)
	SummarizeEmail(ctx context.Context, subject, body string) string
	DetectMeeting(ctx context.Context, turns []domain.ThreadTurn) bool
}

// ThreadFetcher retrieves the full, freshly fetched transcript of a thread,
// ordered by timestamp.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, threadID string) ([]domain.ThreadTurn, error)
}

// MailSource is a connected mailbox the sync reads from.
type MailSource interface {
	ThreadFetcher
	FetchRecentMessages(ctx context.Context, labelIDs []string, query string, max int64) ([]domain.MailMessage, error)
}
