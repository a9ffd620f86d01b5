package clock

import (
	"time"

	"go.uber.org/atomic"
)

// Clock yields a strictly non-decreasing nanosecond timestamp. Implementations
// must be safe for concurrent use; the circuit breaker calls Now from every
// request-path goroutine.
type Clock interface {
	// Now returns the current time in nanoseconds, relative to an arbitrary
	// but fixed reference point. Callers must only compare values returned
	// by the same Clock instance.
	Now() int64
}

// monotonic is the production Clock. It reads time.Now() against a fixed
// start reference so that comparisons ride Go's monotonic clock reading
// rather than wall-clock time, which can jump backwards under NTP correction.
type monotonic struct {
	start time.Time
}

var defaultClock = &monotonic{start: time.Now()}

// Monotonic returns the process-wide production clock.
func Monotonic() Clock {
	return defaultClock
}

func (m *monotonic) Now() int64 {
	return int64(time.Since(m.start))
}

// Manual is a fake Clock for deterministic tests. The zero value is a clock
// reading 0; use NewManual to start at any other time.
type Manual struct {
	now atomic.Int64
}

// NewManual returns a Manual clock initialized to start nanoseconds.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Now implements Clock.
func (m *Manual) Now() int64 {
	return m.now.Load()
}

// Set pins the clock to exactly n nanoseconds.
func (m *Manual) Set(n int64) {
	m.now.Store(n)
}

// Advance moves the clock forward by d. d must be non-negative; the clock
// contract forbids regressions.
func (m *Manual) Advance(d time.Duration) {
	m.now.Add(int64(d))
}
