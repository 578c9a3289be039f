// pkg/rpc/stats.go
package rpc

import (
	"sync"
	"time"
)

// TransportStats holds cumulative counters for all requests issued through
// one sender. Counters only grow; they are never reset for the lifetime of
// the sender.
type TransportStats struct {
	// RequestCount is the number of top-level Send calls, regardless of how
	// many rate-limit retries happened inside each of them.
	RequestCount uint64

	// ElapsedTime is the total wall-clock time spent inside Send calls,
	// including time spent waiting out rate limits.
	ElapsedTime time.Duration

	// RateLimitedTime is the total time spent sleeping between rate-limited
	// attempts.
	RateLimitedTime time.Duration
}

// statsGuard protects the shared counters. Writers hold the lock only for
// the final commit, never for the duration of a network round trip.
type statsGuard struct {
	mu    sync.RWMutex
	stats TransportStats
}

// snapshot returns a copy of the current counters. Concurrent in-flight
// sends may commit before or after the read, but the three counters are
// always read together under the lock, so the copy is never torn.
func (g *statsGuard) snapshot() TransportStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

// statsUpdater accumulates the measurements of a single Send call and folds
// them into the shared counters exactly once. Callers create one at the top
// of the call and defer commit, so every exit path is covered.
type statsUpdater struct {
	guard       *statsGuard
	start       time.Time
	rateLimited time.Duration
}

func (g *statsGuard) begin() *statsUpdater {
	return &statsUpdater{guard: g, start: time.Now()}
}

func (u *statsUpdater) addRateLimitedTime(d time.Duration) {
	u.rateLimited += d
}

func (u *statsUpdater) commit() {
	elapsed := time.Since(u.start)
	u.guard.mu.Lock()
	u.guard.stats.RequestCount++
	u.guard.stats.ElapsedTime += elapsed
	u.guard.stats.RateLimitedTime += u.rateLimited
	u.guard.mu.Unlock()
}
