package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) UserIDForGmail(ctx context.Context, email string) (string, error) {
	if id, ok := m[email]; ok {
		return id, nil
	}
	if email == "broken@gmail.com" {
		return "", errors.New("db down")
	}
	return "", domain.ErrNotConnected
}

type sliceQueue struct {
	jobs []usecase.SyncJob
	full bool
}

func (q *sliceQueue) Enqueue(job usecase.SyncJob) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

func TestHandleNotification(t *testing.T) {
	ctx := context.Background()
	queue := &sliceQueue{}
	s := newHandler(mapResolver{"me@gmail.com": "42"}, queue)

	assert.True(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"me@gmail.com","historyId":100}`)))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, usecase.SyncJob{UserID: "42", Trigger: usecase.TriggerNotification}, queue.jobs[0])

	// replayed or older history ids are dropped
	assert.False(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"me@gmail.com","historyId":100}`)))
	assert.False(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"me@gmail.com","historyId":90}`)))
	assert.True(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"me@gmail.com","historyId":101}`)))
	assert.Len(t, queue.jobs, 2)
}

func TestHandleNotification_Rejected(t *testing.T) {
	ctx := context.Background()
	queue := &sliceQueue{}
	s := newHandler(mapResolver{"me@gmail.com": "42"}, queue)

	assert.False(t, s.HandleNotification(ctx, []byte(`not json`)))
	assert.False(t, s.HandleNotification(ctx, []byte(`{"historyId":5}`)))
	assert.False(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"stranger@gmail.com","historyId":5}`)))
	assert.False(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"broken@gmail.com","historyId":5}`)))
	assert.Empty(t, queue.jobs)

	queue.full = true
	assert.False(t, s.HandleNotification(ctx, []byte(`{"emailAddress":"me@gmail.com","historyId":5}`)))
}

func TestClose_WithoutClient(t *testing.T) {
	assert.NoError(t, newHandler(mapResolver{}, &sliceQueue{}).Close())
}
