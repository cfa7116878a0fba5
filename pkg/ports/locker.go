package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes generation runs that share a key (usually the target name), possibly
// across several processes.
type Locker interface {
	// Lock blocks until key is held or ctx ends. The lock expires after ttl if never released.
	// The returned UnlockFunc must be called once the run finishes.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
