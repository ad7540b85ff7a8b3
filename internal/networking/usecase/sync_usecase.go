package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
)

// Sync triggers
const (
	TriggerManual       = "manual"
	TriggerPoll         = "poll"
	TriggerNotification = "notification"
)

// MailboxConnector opens the Gmail mailbox linked to a Ripple user.
type MailboxConnector interface {
	// OpenMailbox returns domain.ErrNotConnected when the user has no linked account
	OpenMailbox(ctx context.Context, userID string) (domain.Mailbox, MailSource, error)
	// Connection returns nil, nil when the user has no linked account
	Connection(ctx context.Context, userID string) (*domain.Connection, error)
	ListConnected(ctx context.Context) ([]domain.Connection, error)
	MarkSynced(ctx context.Context, userID string, at time.Time) error
}

// mailboxQuery is one slice of the mailbox fetched per sync.
type mailboxQuery struct {
	labels []string
	query  string
}

var syncQueries = []mailboxQuery{
	{labels: []string{"INBOX"}, query: "category:primary"},
	{labels: []string{domain.LabelSent}},
}

// SyncUsecase runs the pipeline over a user's recent inbox and sent mail.
type SyncUsecase struct {
	connector   MailboxConnector
	processor   *MessageProcessor
	runs        repository.SyncRunRepository
	maxMessages int64

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSyncUsecase(connector MailboxConnector, processor *MessageProcessor, runs repository.SyncRunRepository, maxMessages int64) *SyncUsecase {
	if maxMessages <= 0 {
		maxMessages = 10
	}
	return &SyncUsecase{
		connector:   connector,
		processor:   processor,
		runs:        runs,
		maxMessages: maxMessages,
		inFlight:    make(map[string]struct{}),
	}
}

// SyncUser processes the most recent messages of the user's mailbox. Two
// syncs of the same user never overlap; the second one gets ErrSyncInProgress.
func (u *SyncUsecase) SyncUser(ctx context.Context, userID, trigger string) (*domain.SyncReport, error) {
	if !u.acquire(userID) {
		return nil, domain.ErrSyncInProgress
	}
	defer u.release(userID)

	mailbox, source, err := u.connector.OpenMailbox(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &domain.SyncReport{
		UserID:    userID,
		Errors:    []string{},
		StartedAt: time.Now().UTC(),
	}

	for _, q := range syncQueries {
		messages, err := source.FetchRecentMessages(ctx, q.labels, q.query, u.maxMessages)
		if err != nil {
			log.Printf("[Sync] Failed to fetch %v for user %s: %v", q.labels, userID, err)
			report.AddError(fmt.Sprintf("fetch %v: %v", q.labels, err))
			continue
		}

		for _, msg := range messages {
			if ctx.Err() != nil {
				break
			}
			report.MessagesProcessed++
			report.Add(msg.ID, u.processor.Process(ctx, mailbox, source, msg))
		}
	}

	report.FinishedAt = time.Now().UTC()
	if ctx.Err() != nil {
		report.AddError(ctx.Err().Error())
	}

	if u.runs != nil {
		// a detached context so a cancelled request still leaves a record
		runID, err := u.runs.Save(context.WithoutCancel(ctx), trigger, report)
		if err != nil {
			log.Printf("[Sync] Failed to save sync run for user %s: %v", userID, err)
		} else {
			report.RunID = runID
		}
	}
	if err := u.connector.MarkSynced(context.WithoutCancel(ctx), userID, report.FinishedAt); err != nil {
		log.Printf("[Sync] Failed to mark user %s synced: %v", userID, err)
	}

	log.Printf("[Sync] User %s (%s): %d messages, %d networking, %d failed",
		userID, trigger, report.MessagesProcessed, report.NetworkingMessages, report.Failed)
	return report, nil
}

// SyncAll runs a sync for every connected user, one after another.
func (u *SyncUsecase) SyncAll(ctx context.Context, trigger string) (int, error) {
	connections, err := u.connector.ListConnected(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, c := range connections {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if _, err := u.SyncUser(ctx, c.UserID, trigger); err != nil {
			log.Printf("[Sync] Sync failed for user %s: %v", c.UserID, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Status reports whether the user is connected and how the last sync went.
func (u *SyncUsecase) Status(ctx context.Context, userID string) (*domain.SyncStatus, error) {
	conn, err := u.connector.Connection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return &domain.SyncStatus{Connected: false}, nil
	}

	status := &domain.SyncStatus{
		Connected:   true,
		GmailEmail:  conn.GmailEmail,
		LastSync:    conn.LastSyncAt,
		ConnectedAt: &conn.ConnectedAt,
	}
	if u.runs != nil {
		run, err := u.runs.Latest(ctx, userID)
		if err != nil {
			return nil, err
		}
		status.LastRun = run
	}
	return status, nil
}

func (u *SyncUsecase) acquire(userID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, busy := u.inFlight[userID]; busy {
		return false
	}
	u.inFlight[userID] = struct{}{}
	return true
}

func (u *SyncUsecase) release(userID string) {
	u.mu.Lock()
	delete(u.inFlight, userID)
	u.mu.Unlock()
}
