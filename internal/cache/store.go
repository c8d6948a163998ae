package cache

import (
	"context"
	"time"
)

// Counter is a shared fixed-window counter. Implementations must be safe to
// use from multiple server instances at once.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Ping(ctx context.Context) error
}

var _ Counter = (*RedisStore)(nil)
