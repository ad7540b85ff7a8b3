package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	"github.com/abbywylie/Ripple/internal/auth/repository"
	"github.com/abbywylie/Ripple/pkg/config"
	"github.com/abbywylie/Ripple/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.GmailToken{}, &authdomain.OAuthState{}))
	return db
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthUsecase_ValidateToken(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&authdomain.User{ID: 42, Email: "abby@example.com"}).Error)
	uc := NewAuthUsecase(repository.NewUserRepository(db), &config.Config{JWTSecret: testSecret})
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("numeric user_id", func(t *testing.T) {
		user, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": 42, "exp": exp}))
		require.NoError(t, err)
		assert.Equal(t, "42", user.Key())
	})

	t.Run("string sub", func(t *testing.T) {
		user, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "42", "exp": exp}))
		require.NoError(t, err)
		assert.Equal(t, "abby@example.com", user.Email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": 42, "exp": exp}))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(-time.Minute).Unix()}))
		assert.Error(t, err)
	})

	t.Run("missing claim", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": exp}))
		assert.Error(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "9", "exp": exp}))
		assert.ErrorIs(t, err, authdomain.ErrUserNotFound)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": 42, "exp": exp})
		_, err := uc.ValidateToken(ctx, token)
		assert.Error(t, err)
	})
}
