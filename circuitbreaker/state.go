package circuitbreaker

import "github.com/aureliano/circuitbreaker/internal/counter"

// CircuitState is one of the three states a CircuitBreaker can be in.
type CircuitState int

const (
	// StateClosed is the initial state. All requests are sent to the
	// remote service; outcomes are tracked by a sliding-window counter.
	StateClosed CircuitState = iota + 1
	// StateOpen rejects every request immediately without touching the
	// remote service.
	StateOpen
	// StateHalfOpen grants exactly one trial request per deadline. A success
	// returns the breaker to CLOSED; a failure sends it back to OPEN. If
	// the trial neither succeeds nor fails before the next deadline,
	// another trial is granted.
	StateHalfOpen
)

// String returns a lower-case representation of the state, suitable for
// log lines.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// state is the immutable snapshot a CircuitBreaker holds behind an atomic
// pointer. It is never mutated in place; every transition builds a new
// state and CASes it into place. Callers outside this package never see a
// *state directly — only through CircuitBreaker's methods.
type state struct {
	circuitState  CircuitState
	counter       counter.EventCounter
	deadlineNanos int64 // 0 means the state never times out.
}

func (s *state) isClosed() bool   { return s.circuitState == StateClosed }
func (s *state) isOpen() bool     { return s.circuitState == StateOpen }
func (s *state) isHalfOpen() bool { return s.circuitState == StateHalfOpen }

// checkTimeout reports whether this state's deadline has elapsed as of
// now. A zero deadline never times out.
func (s *state) checkTimeout(now int64) bool {
	return s.deadlineNanos > 0 && s.deadlineNanos <= now
}
