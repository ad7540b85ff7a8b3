package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	"github.com/abbywylie/Ripple/internal/auth/repository"
	"github.com/abbywylie/Ripple/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// AuthUsecase authenticates requests carrying a Ripple backend access token
type AuthUsecase interface {
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	config   *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		config:   cfg,
	}
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claimUserID(claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}

	return user, nil
}

// claimUserID reads user_id, falling back to sub. The Ripple backend issues
// numeric ids, JSON decodes them as float64.
func claimUserID(claims jwt.MapClaims) (string, bool) {
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), true
		}
	}
	return "", false
}
