package ratelimit

import (
	"sync"
	"time"
)

// GapLimiter enforces a minimum gap between accepted signals per symbol.
// The clock is monotonic per symbol; symbols never interfere with each
// other. Mark is only called on acceptance.
type GapLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func New() *GapLimiter {
	return &GapLimiter{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow returns true if at least gap has passed since the last accepted
// signal for symbol. A symbol never seen before is always allowed.
func (l *GapLimiter) Allow(symbol string, gap time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.last[symbol]
	if !ok {
		return true
	}
	return l.now().Sub(last) >= gap
}

// Mark records an accepted signal for symbol.
func (l *GapLimiter) Mark(symbol string) {
	l.mu.Lock()
	l.last[symbol] = l.now()
	l.mu.Unlock()
}

// SetClock overrides the time source, for tests.
func (l *GapLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}
