package repository

import (
	"context"
	"testing"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Contact{}, &domain.Thread{}, &domain.Message{}, &domain.SyncRun{}))
	return db
}

func TestThreadStateRepository_UpsertThread_MergesOutOfOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t1", UserID: "u1", ContactEmail: "Jane@Example.com", Subject: "Coffee chat", MessageTS: 2000, IsNetworking: true,
	}))
	// an older message arrives later
	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t1", UserID: "u1", ContactEmail: "other@example.com", Subject: "Re: Coffee chat", MessageTS: 1000, IsNetworking: true,
	}))
	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t1", UserID: "u1", MessageTS: 3000, IsNetworking: true,
	}))

	thread, err := repo.GetThread(ctx, "t1", "u1")
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.True(t, thread.IsNetworking)
	assert.Equal(t, int64(2000), thread.FirstMessageTS)
	assert.Equal(t, int64(3000), thread.LastUpdatedTS)
	require.NotNil(t, thread.ContactEmail)
	assert.Equal(t, "jane@example.com", *thread.ContactEmail)
	require.NotNil(t, thread.Subject)
	assert.Equal(t, "Coffee chat", *thread.Subject)
}

func TestThreadStateRepository_UpsertThread_NotNetworking(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t2", UserID: "u1", ContactEmail: "promo@shop.com", Subject: "Sale", MessageTS: 10,
	}))

	status, err := repo.GetThreadNetworkingStatus(ctx, "t2", "u1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.False(t, *status)

	thread, err := repo.GetThread(ctx, "t2", "u1")
	require.NoError(t, err)
	assert.Nil(t, thread.ContactEmail)

	// a networking merge turns the flag on and fills the contact
	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t2", UserID: "u1", ContactEmail: "jane@example.com", MessageTS: 20, IsNetworking: true,
	}))
	thread, err = repo.GetThread(ctx, "t2", "u1")
	require.NoError(t, err)
	assert.True(t, thread.IsNetworking)
	require.NotNil(t, thread.ContactEmail)
	assert.Equal(t, "jane@example.com", *thread.ContactEmail)
}

func TestThreadStateRepository_UnknownThread(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	status, err := repo.GetThreadNetworkingStatus(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.Nil(t, status)

	thread, err := repo.GetThread(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.Nil(t, thread)
}

func TestThreadStateRepository_UpsertContact(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	require.NoError(t, repo.UpsertContact(ctx, "u1", " Jane@Example.com ", "", 2000))
	contact, err := repo.GetContact(ctx, "jane@example.com", "u1")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Nil(t, contact.Name)
	assert.Equal(t, "jane@example.com", contact.DisplayName())

	require.NoError(t, repo.UpsertContact(ctx, "u1", "jane@example.com", "Jane Doe", 1000))
	contact, err = repo.GetContact(ctx, "JANE@example.com", "u1")
	require.NoError(t, err)
	require.NotNil(t, contact.Name)
	assert.Equal(t, "Jane Doe", *contact.Name)
	assert.Equal(t, int64(2000), contact.LastContactTS)

	// an empty name never clears a known one
	require.NoError(t, repo.UpsertContact(ctx, "u1", "jane@example.com", "  ", 3000))
	contact, err = repo.GetContact(ctx, "jane@example.com", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", contact.DisplayName())
	assert.Equal(t, int64(3000), contact.LastContactTS)

	// contacts are scoped by user
	other, err := repo.GetContact(ctx, "jane@example.com", "u2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestThreadStateRepository_InsertMessage_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	msg := &domain.Message{GmailID: "m1", UserID: "u1", ThreadID: "t1", ContactEmail: "Jane@Example.com", Timestamp: 1000, Direction: domain.DirectionSent, Summary: "first"}
	require.NoError(t, repo.InsertMessage(ctx, msg))
	require.NoError(t, repo.InsertMessage(ctx, &domain.Message{GmailID: "m1", UserID: "u1", ThreadID: "t1", Timestamp: 1000, Direction: domain.DirectionReceived, Summary: "second"}))

	exists, err := repo.MessageExists(ctx, "m1", "u1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.MessageExists(ctx, "m1", "u2")
	require.NoError(t, err)
	assert.False(t, exists)

	msgs, err := repo.ListMessagesByThread(ctx, "t1", "u1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Summary)
	assert.Equal(t, "jane@example.com", msgs[0].ContactEmail)
}

func TestThreadStateRepository_Directions(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	for _, m := range []domain.Message{
		{GmailID: "m3", ThreadID: "t1", Timestamp: 3000, Direction: domain.DirectionReceived},
		{GmailID: "m1", ThreadID: "t1", Timestamp: 1000, Direction: domain.DirectionSent},
		{GmailID: "m2", ThreadID: "t2", Timestamp: 2000, Direction: domain.DirectionSent},
	} {
		m := m
		m.UserID = "u1"
		m.ContactEmail = "jane@example.com"
		require.NoError(t, repo.InsertMessage(ctx, &m))
	}

	thread, err := repo.ListThreadDirections(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Direction{domain.DirectionSent, domain.DirectionReceived}, thread)

	contact, err := repo.ListContactDirections(ctx, "Jane@example.com", "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Direction{domain.DirectionSent, domain.DirectionSent, domain.DirectionReceived}, contact)
}

func TestThreadStateRepository_MeetingAndChecklist(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	require.NoError(t, repo.UpsertContact(ctx, "u1", "jane@example.com", "Jane", 1000))
	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID: "t1", UserID: "u1", ContactEmail: "jane@example.com", MessageTS: 1000, IsNetworking: true,
	}))

	has, err := repo.ContactHasScheduledMeeting(ctx, "jane@example.com", "u1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.SetMeetingScheduled(ctx, "t1", "u1"))
	require.NoError(t, repo.SetMeetingScheduled(ctx, "t1", "u1"))

	// later merges leave the meeting flag alone
	require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{ThreadID: "t1", UserID: "u1", MessageTS: 2000, IsNetworking: true}))

	thread, err := repo.GetThread(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, thread.MeetingScheduled)

	has, err = repo.ContactHasScheduledMeeting(ctx, "jane@example.com", "u1")
	require.NoError(t, err)
	assert.True(t, has)

	checklist := domain.Checklist{HasReachedOut: true, HasContactResponded: true, HasScheduledMeeting: true}
	require.NoError(t, repo.UpdateContactChecklist(ctx, "jane@example.com", "u1", checklist))

	contact, err := repo.GetContact(ctx, "jane@example.com", "u1")
	require.NoError(t, err)
	assert.True(t, contact.HasReachedOut)
	assert.True(t, contact.HasContactResponded)
	assert.True(t, contact.HasScheduledMeeting)
	assert.False(t, contact.AwaitingReplyFromUser)
}

func TestThreadStateRepository_Listings(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadStateRepository(newTestDB(t))

	require.NoError(t, repo.UpsertContact(ctx, "u1", "old@example.com", "Old", 1000))
	require.NoError(t, repo.UpsertContact(ctx, "u1", "new@example.com", "New", 5000))
	require.NoError(t, repo.UpsertContact(ctx, "u2", "else@example.com", "Else", 9000))

	contacts, err := repo.ListContacts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "new@example.com", contacts[0].Email)

	for i, ts := range []int64{1000, 4000} {
		require.NoError(t, repo.UpsertThread(ctx, domain.ThreadUpsert{
			ThreadID: []string{"ta", "tb"}[i], UserID: "u1", ContactEmail: "new@example.com", MessageTS: ts, IsNetworking: true,
		}))
	}
	threads, err := repo.ListThreadsByContact(ctx, "new@example.com", "u1")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "tb", threads[0].ThreadID)
}

func TestSyncRunRepository_SaveAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncRunRepository(newTestDB(t))

	latest, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	start := time.Now().Add(-time.Hour)
	_, err = repo.Save(ctx, "poll", &domain.SyncReport{UserID: "u1", StartedAt: start, FinishedAt: start.Add(time.Second)})
	require.NoError(t, err)

	id, err := repo.Save(ctx, "manual", &domain.SyncReport{
		UserID: "u1", MessagesProcessed: 4, NetworkingMessages: 2, Skipped: 1, Failed: 1,
		Errors: []string{"m9: classify: boom"}, StartedAt: start.Add(time.Minute), FinishedAt: start.Add(2 * time.Minute),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	latest, err = repo.Latest(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, "manual", latest.Trigger)
	assert.Equal(t, 2, latest.NetworkingMessages)
	assert.JSONEq(t, `["m9: classify: boom"]`, string(latest.Errors))
}
