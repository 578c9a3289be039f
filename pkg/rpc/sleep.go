// pkg/rpc/sleep.go
package rpc

import (
	"context"
	"time"
)

// SleepFunc suspends the caller for d or until ctx is done, returning
// ctx.Err() in the latter case. Retry waits and poll intervals go through
// this so the host can substitute its own primitive (tests inject a no-op
// recorder).
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultSleep is the blocking implementation used outside of tests.
func DefaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
