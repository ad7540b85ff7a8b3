package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncUsecase_SyncUser(t *testing.T) {
	ctx := context.Background()
	store, runs := newTestStore(t)
	oracle := &fakeOracle{networking: true, summary: "s"}
	mailbox := &fakeMailbox{messages: map[string][]domain.MailMessage{
		"INBOX":           {received("m2", "t1", "jane@example.com", 2000)},
		domain.LabelSent: {sent("m1", "t1", "jane@example.com", 1000), sent("m3", "t2", ownerEmail, 3000)},
	}}
	connector := newFakeConnector(mailbox, "u1")
	uc := NewSyncUsecase(connector, NewMessageProcessor(store, oracle), runs, 10)

	report, err := uc.SyncUser(ctx, "u1", TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 3, report.MessagesProcessed)
	assert.Equal(t, 2, report.NetworkingMessages)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.NotEmpty(t, report.RunID)
	assert.Contains(t, connector.synced, "u1")

	// a second pass finds everything already processed
	report, err = uc.SyncUser(ctx, "u1", TriggerPoll)
	require.NoError(t, err)
	assert.Equal(t, 0, report.NetworkingMessages)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 1, oracle.classified)

	status, err := uc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, ownerEmail, status.GmailEmail)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, TriggerPoll, status.LastRun.Trigger)
	assert.NotNil(t, status.LastSync)
}

func TestSyncUsecase_FetchErrorIsReported(t *testing.T) {
	store, runs := newTestStore(t)
	mailbox := &fakeMailbox{
		messages: map[string][]domain.MailMessage{"INBOX": {received("m1", "t1", "jane@example.com", 1000)}},
		fetchErr: map[string]error{domain.LabelSent: errors.New("quota exceeded")},
	}
	uc := NewSyncUsecase(newFakeConnector(mailbox, "u1"), NewMessageProcessor(store, &fakeOracle{networking: true, summary: "s"}), runs, 0)

	report, err := uc.SyncUser(context.Background(), "u1", TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NetworkingMessages)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "quota exceeded")
}

func TestSyncUsecase_NotConnected(t *testing.T) {
	store, runs := newTestStore(t)
	uc := NewSyncUsecase(newFakeConnector(&fakeMailbox{}), NewMessageProcessor(store, &fakeOracle{}), runs, 10)

	_, err := uc.SyncUser(context.Background(), "nobody", TriggerManual)
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	status, err := uc.Status(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestSyncUsecase_RejectsOverlappingSync(t *testing.T) {
	store, runs := newTestStore(t)
	mailbox := &fakeMailbox{block: make(chan struct{})}
	uc := NewSyncUsecase(newFakeConnector(mailbox, "u1"), NewMessageProcessor(store, &fakeOracle{}), runs, 10)

	done := make(chan error, 1)
	go func() {
		_, err := uc.SyncUser(context.Background(), "u1", TriggerPoll)
		done <- err
	}()

	require.Eventually(t, func() bool {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		_, busy := uc.inFlight["u1"]
		return busy
	}, time.Second, 5*time.Millisecond)

	_, err := uc.SyncUser(context.Background(), "u1", TriggerManual)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(mailbox.block)
	require.NoError(t, <-done)
}

func TestSyncUsecase_SyncAll(t *testing.T) {
	store, runs := newTestStore(t)
	mailbox := &fakeMailbox{messages: map[string][]domain.MailMessage{}}
	uc := NewSyncUsecase(newFakeConnector(mailbox, "u1", "u2"), NewMessageProcessor(store, &fakeOracle{}), runs, 10)

	n, err := uc.SyncAll(context.Background(), TriggerPoll)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type countingSyncer struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *countingSyncer) SyncUser(ctx context.Context, userID, trigger string) (*domain.SyncReport, error) {
	if s.release != nil {
		<-s.release
	}
	s.calls.Add(1)
	return &domain.SyncReport{UserID: userID}, nil
}

func TestSyncWorkerService_DeduplicatesPendingJobs(t *testing.T) {
	syncer := &countingSyncer{}
	worker := NewSyncWorkerService(syncer, 1)

	// not started yet, so jobs stay queued
	assert.True(t, worker.Enqueue(SyncJob{UserID: "u1", Trigger: TriggerNotification}))
	assert.True(t, worker.Enqueue(SyncJob{UserID: "u1", Trigger: TriggerNotification}))
	assert.True(t, worker.Enqueue(SyncJob{UserID: "u2", Trigger: TriggerPoll}))
	assert.Len(t, worker.jobQueue, 2)

	worker.Start()
	worker.Stop()
	assert.Equal(t, int32(2), syncer.calls.Load())

	assert.False(t, worker.Enqueue(SyncJob{UserID: "u1"}))
	worker.Stop()
}

func TestSyncWorkerService_RequeueWhileRunning(t *testing.T) {
	syncer := &countingSyncer{release: make(chan struct{})}
	worker := NewSyncWorkerService(syncer, 1)
	worker.Start()

	require.True(t, worker.Enqueue(SyncJob{UserID: "u1"}))
	// once picked up, the user is no longer pending and can be queued again
	require.Eventually(t, func() bool {
		worker.mu.Lock()
		defer worker.mu.Unlock()
		return len(worker.pending) == 0
	}, time.Second, 5*time.Millisecond)
	require.True(t, worker.Enqueue(SyncJob{UserID: "u1"}))

	close(syncer.release)
	worker.Stop()
	assert.Equal(t, int32(2), syncer.calls.Load())
}
