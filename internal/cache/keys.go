package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	MovieKeyPrefix = "movie:%d"
)

const (
	UserTTL  = 5 * time.Minute
	MovieTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func MovieKey(movieID uint) string {
	return fmt.Sprintf(MovieKeyPrefix, movieID)
}

// Invalidate drops keys from the cache. It is a no-op without Redis.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateMovie(ctx context.Context, movieID uint) {
	Invalidate(ctx, MovieKey(movieID))
}
