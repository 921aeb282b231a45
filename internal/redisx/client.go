package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// SessionUserID resolves a bearer token to the user id the auth service
// stored for it. Returns redis.Nil when the token is unknown or expired.
func SessionUserID(ctx context.Context, rdb *redis.Client, token string) (string, error) {
	return rdb.Get(ctx, fmt.Sprintf(KeySession, token)).Result()
}
