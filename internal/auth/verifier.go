package auth

import (
	"context"
	"errors"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidToken = errors.New("token is invalid")

// Verifier resolves bearer tokens minted by the external credential service.
// Tokens live in Redis as session keys; this side only verifies, it never
// issues.
type Verifier struct {
	Redis *redis.Client
	Users *market.Repo
}

func (v *Verifier) VerifyToken(ctx context.Context, token string) (market.User, error) {
	userID, err := redisx.SessionUserID(ctx, v.Redis, token)
	if errors.Is(err, redis.Nil) {
		return market.User{}, ErrInvalidToken
	}
	if err != nil {
		return market.User{}, err
	}

	u, err := v.Users.GetUser(ctx, userID)
	if errors.Is(err, market.ErrUserNotFound) {
		return market.User{}, ErrInvalidToken
	}
	return u, err
}
