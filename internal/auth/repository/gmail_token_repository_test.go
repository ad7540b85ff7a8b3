package repository

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	"github.com/abbywylie/Ripple/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.GmailToken{}, &authdomain.OAuthState{}))
	return db
}

func TestGmailTokenRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewGmailTokenRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, &authdomain.GmailToken{UserID: "7", GmailEmail: "Me@Gmail.com", AccessToken: "a1", RefreshToken: "r1", ConnectedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &authdomain.GmailToken{UserID: "7", GmailEmail: "other@gmail.com", AccessToken: "a2", RefreshToken: "r2", ConnectedAt: time.Now()}))

	token, err := repo.FindByUserID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "other@gmail.com", token.GmailEmail)
	assert.Equal(t, "a2", token.AccessToken)

	byEmail, err := repo.FindByGmailEmail(ctx, " OTHER@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "7", byEmail.UserID)

	missing, err := repo.FindByGmailEmail(ctx, "me@gmail.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGmailTokenRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := NewGmailTokenRepository(newTestDB(t))
	require.NoError(t, repo.Save(ctx, &authdomain.GmailToken{UserID: "7", GmailEmail: "me@gmail.com", AccessToken: "a1", RefreshToken: "r1", ConnectedAt: time.Now()}))

	expiry := time.Now().Add(time.Hour).UTC()
	require.NoError(t, repo.UpdateAccessToken(ctx, "7", "a2", "", "Bearer", &expiry))

	token, err := repo.FindByUserID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "a2", token.AccessToken)
	assert.Equal(t, "r1", token.RefreshToken)
	require.NotNil(t, token.Expiry)

	require.NoError(t, repo.UpdateHistoryID(ctx, "7", 500))
	require.NoError(t, repo.UpdateHistoryID(ctx, "7", 100))
	token, err = repo.FindByUserID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), token.HistoryID)

	at := time.Now().UTC()
	require.NoError(t, repo.MarkSynced(ctx, "7", at))
	token, err = repo.FindByUserID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token.LastSyncAt)

	connected, err := repo.ListConnected(ctx)
	require.NoError(t, err)
	assert.Len(t, connected, 1)

	require.NoError(t, repo.Delete(ctx, "7"))
	connected, err = repo.ListConnected(ctx)
	require.NoError(t, err)
	assert.Empty(t, connected)
}

func TestGmailTokenRepository_ConsumeState(t *testing.T) {
	ctx := context.Background()
	repo := NewGmailTokenRepository(newTestDB(t))
	now := time.Now()

	require.NoError(t, repo.SaveState(ctx, &authdomain.OAuthState{State: "good", UserID: "7", ExpiresAt: now.Add(10 * time.Minute)}))
	require.NoError(t, repo.SaveState(ctx, &authdomain.OAuthState{State: "stale", UserID: "7", ExpiresAt: now.Add(time.Minute)}))

	state, err := repo.ConsumeState(ctx, "good", now)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "7", state.UserID)

	// single use
	state, err = repo.ConsumeState(ctx, "good", now)
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = repo.ConsumeState(ctx, "stale", now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = repo.ConsumeState(ctx, "unknown", now)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Create(&authdomain.User{ID: 42, Email: "Abby@Example.com", Name: "Abby"}).Error)
	repo := NewUserRepository(db)

	user, err := repo.FindByID(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "42", user.Key())

	user, err = repo.FindByEmail(ctx, "abby@example.com ")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Abby", user.Name)

	user, err = repo.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, user)
}
