package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to one respondent session across
// server replicas sharing a StateStore.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires on its
	// own after ttl so a crashed replica cannot hold a session forever.
	// The returned UnlockFunc must be called once the session is saved.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
