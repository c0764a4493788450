// Package throttle bounds the volume of usage-counter writes. Usage is
// polled for every active session on every monitor cycle; persisting every
// observation would dominate store write volume, so writes are skipped
// until the counter has moved enough or the last write is old enough.
package throttle

import (
	"sync"
	"time"
)

type entry struct {
	lastBytes int64
	lastAt    time.Time
}

// UsageThrottle keeps a per-username baseline of the last persisted byte
// count. The map is process-local and rebuildable: after a restart every
// username is treated as new, costing at most one extra write each.
type UsageThrottle struct {
	mu           sync.Mutex
	minDelta     int64
	maxAge       time.Duration
	lastObserved map[string]entry
}

func New(minDelta int64, maxAge time.Duration) *UsageThrottle {
	return &UsageThrottle{
		minDelta:     minDelta,
		maxAge:       maxAge,
		lastObserved: make(map[string]entry),
	}
}

// ShouldPersist reports whether the observed total is worth writing.
// It returns true when the username has no baseline yet, when the counter
// has gone backwards (device reboot reset it), when the delta since the
// last write reaches the minimum, or when the last write is older than the
// maximum age. A true decision resets the baseline; the caller is expected
// to persist the value.
func (t *UsageThrottle) ShouldPersist(username string, currentBytes int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.lastObserved[username]
	if ok &&
		currentBytes >= prev.lastBytes &&
		currentBytes-prev.lastBytes < t.minDelta &&
		now.Sub(prev.lastAt) < t.maxAge {
		return false
	}

	t.lastObserved[username] = entry{lastBytes: currentBytes, lastAt: now}
	return true
}

// Forget drops the baseline for a username, e.g. after its record is
// expired and no further writes are expected.
func (t *UsageThrottle) Forget(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastObserved, username)
}
