package gc

import (
	"sync/atomic"
	"time"
)

// Guard limits sweeps to one per interval within this process. It is not a
// cluster lock: every instance keeps its own guard.
//
// TryAcquire reads and then stamps the timestamp as two separate steps, so
// concurrent requests may both win and sweep at the same time.
type Guard struct {
	interval time.Duration
	lastRun  atomic.Int64 // unix nanos, 0 = never ran
}

// NewGuard returns a guard that opens at most once per interval.
func NewGuard(interval time.Duration) *Guard {
	return &Guard{interval: interval}
}

// TryAcquire reports whether a sweep is due at now and, if so, records now as the last run.
func (g *Guard) TryAcquire(now time.Time) bool {
	last := g.lastRun.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < g.interval {
		return false
	}
	g.lastRun.Store(now.UnixNano())
	return true
}

// Reset forgets the last run so the next request sweeps again.
func (g *Guard) Reset() {
	g.lastRun.Store(0)
}
