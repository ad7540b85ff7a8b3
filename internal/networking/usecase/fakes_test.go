package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
	"github.com/abbywylie/Ripple/pkg/database"

	"github.com/stretchr/testify/require"
)

const ownerEmail = "me@gmail.com"

var owner = domain.Mailbox{UserID: "u1", Email: ownerEmail}

func newTestStore(t *testing.T) (repository.ThreadStateRepository, repository.SyncRunRepository) {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Contact{}, &domain.Thread{}, &domain.Message{}, &domain.SyncRun{}))
	return repository.NewThreadStateRepository(db), repository.NewSyncRunRepository(db)
}

// fakeOracle answers from fixed values and counts calls.
type fakeOracle struct {
	mu           sync.Mutex
	networking   bool
	summary      string
	meeting      bool
	classified   int
	summarized   int
	meetingCalls int
}

func (o *fakeOracle) ClassifyAndSummarize(ctx context.Context, subject, body string) (bool, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.classified++
	if !o.networking {
		return false, ""
	}
	return true, o.summary
}

func (o *fakeOracle) SummarizeEmail(ctx context.Context, subject, body string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summarized++
	return o.summary
}

func (o *fakeOracle) DetectMeeting(ctx context.Context, turns []domain.ThreadTurn) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.meetingCalls++
	return o.meeting
}

// fakeMailbox serves canned messages per label and thread turns per thread id.
type fakeMailbox struct {
	mu       sync.Mutex
	messages map[string][]domain.MailMessage
	fetchErr map[string]error
	turns    map[string][]domain.ThreadTurn
	threads  int
	block    chan struct{}
}

func (f *fakeMailbox) FetchRecentMessages(ctx context.Context, labelIDs []string, query string, max int64) ([]domain.MailMessage, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	label := labelIDs[0]
	if err := f.fetchErr[label]; err != nil {
		return nil, err
	}
	return f.messages[label], nil
}

func (f *fakeMailbox) FetchThread(ctx context.Context, threadID string) ([]domain.ThreadTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	return f.turns[threadID], nil
}

// fakeConnector links every user in conns to mailbox.
type fakeConnector struct {
	mu      sync.Mutex
	mailbox *fakeMailbox
	conns   map[string]*domain.Connection
	synced  map[string]time.Time
}

func newFakeConnector(mailbox *fakeMailbox, userIDs ...string) *fakeConnector {
	c := &fakeConnector{mailbox: mailbox, conns: map[string]*domain.Connection{}, synced: map[string]time.Time{}}
	for _, id := range userIDs {
		c.conns[id] = &domain.Connection{UserID: id, GmailEmail: ownerEmail, ConnectedAt: time.Now()}
	}
	return c
}

func (c *fakeConnector) OpenMailbox(ctx context.Context, userID string) (domain.Mailbox, MailSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[userID]
	if !ok {
		return domain.Mailbox{}, nil, domain.ErrNotConnected
	}
	return domain.Mailbox{UserID: userID, Email: conn.GmailEmail}, c.mailbox, nil
}

func (c *fakeConnector) Connection(ctx context.Context, userID string) (*domain.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[userID], nil
}

func (c *fakeConnector) ListConnected(ctx context.Context) ([]domain.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Connection
	for _, conn := range c.conns {
		out = append(out, *conn)
	}
	return out, nil
}

func (c *fakeConnector) MarkSynced(ctx context.Context, userID string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.synced[userID] = at
	if conn, ok := c.conns[userID]; ok {
		conn.LastSyncAt = &at
	}
	return nil
}

func received(id, threadID, from string, ts int64) domain.MailMessage {
	return domain.MailMessage{
		ID:           id,
		ThreadID:     threadID,
		LabelIDs:     []string{"INBOX"},
		Subject:      "Coffee chat",
		From:         []domain.Address{{Name: "Jane Doe", Email: from}},
		To:           []domain.Address{{Email: ownerEmail}},
		BodyText:     "Would love to chat about your team.",
		InternalDate: ts,
	}
}

func sent(id, threadID, to string, ts int64) domain.MailMessage {
	return domain.MailMessage{
		ID:           id,
		ThreadID:     threadID,
		LabelIDs:     []string{domain.LabelSent},
		Subject:      "Re: Coffee chat",
		From:         []domain.Address{{Email: ownerEmail}},
		To:           []domain.Address{{Email: to}},
		BodyText:     "Sure, Tuesday at 3pm?",
		InternalDate: ts,
	}
}
