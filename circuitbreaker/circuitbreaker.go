package circuitbreaker

import (
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	intcounter "github.com/aureliano/circuitbreaker/internal/counter"

	"github.com/aureliano/circuitbreaker/clock"
)

// instanceSeq names anonymous breakers with a process-wide, monotonically
// increasing sequence, the same role the source's static AtomicLong plays.
var instanceSeq atomic.Uint64

// CircuitBreaker guards calls to a remote dependency. It holds exactly one
// state behind an atomic pointer and performs every transition with a CAS
// on that pointer. Every method is non-blocking and safe for concurrent use
// from any number of goroutines; none of them ever returns an error.
type CircuitBreaker struct {
	name    string
	config  Config
	clk     clock.Clock
	logger  *zap.Logger
	current atomic.Pointer[state]
}

// New creates a CircuitBreaker in StateClosed, using clk as its time source
// and cfg as its parameter bundle. cfg should already be valid (see
// Config.Validate / NewConfig); New does not re-validate it.
func New(clk clock.Clock, cfg Config) *CircuitBreaker {
	return NewWithLogger(clk, cfg, zap.NewNop())
}

// NewWithLogger is New, additionally routing the state-transition log line
// to logger instead of discarding it.
func NewWithLogger(clk clock.Clock, cfg Config, logger *zap.Logger) *CircuitBreaker {
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("circuit-breaker-%d", instanceSeq.Inc())
	}

	b := &CircuitBreaker{
		name:   name,
		config: cfg,
		clk:    clk,
		logger: logger,
	}
	b.current.Store(b.newClosedState())
	b.logger.Info("circuit breaker state transition",
		zap.String("name", b.name), zap.Stringer("state", StateClosed))

	return b
}

// Name returns the breaker's name, as configured or auto-generated.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State returns the breaker's current state. It is a point-in-time read;
// by the time the caller acts on it, a concurrent transition may already
// have superseded it. Intended for observability and tests, not for
// request-path decisions — use CanRequest for that.
func (b *CircuitBreaker) State() CircuitState {
	return b.current.Load().circuitState
}

// CanRequest reports whether a caller may proceed with a call guarded by
// this breaker. It returns true unconditionally while CLOSED. While OPEN or
// HALF_OPEN it returns true only for the single caller whose CAS wins the
// transition into a fresh HALF_OPEN trial once the current deadline has
// elapsed; every other caller gets false.
func (b *CircuitBreaker) CanRequest() bool {
	cur := b.current.Load()

	switch {
	case cur.isClosed():
		return true
	case cur.isOpen(), cur.isHalfOpen():
		if !cur.checkTimeout(b.clk.Now()) {
			return false
		}
		next := b.newHalfOpenState()
		if b.current.CompareAndSwap(cur, next) {
			b.logStateTransition(StateHalfOpen, nil)
			return true
		}
		return false
	default:
		// Unreachable: CircuitState has exactly three values, all handled
		// above.
		return false
	}
}

// OnSuccess reports a successful call outcome.
//
//   - CLOSED: recorded in the sliding-window counter; no transition.
//   - HALF_OPEN: the trial succeeded, so the breaker closes. A losing CAS
//     means another goroutine already moved the state; nothing left to do.
//   - OPEN: a stale report (the call must have started before the breaker
//     opened); discarded without re-closing the circuit.
func (b *CircuitBreaker) OnSuccess() {
	cur := b.current.Load()

	switch {
	case cur.isClosed():
		cur.counter.OnSuccess()
	case cur.isHalfOpen():
		if b.current.CompareAndSwap(cur, b.newClosedState()) {
			b.logStateTransition(StateClosed, nil)
		}
	}
}

// OnFailure reports a failed call outcome with no associated cause. It is
// equivalent to OnFailureCause(nil).
func (b *CircuitBreaker) OnFailure() {
	b.onFailure()
}

// OnFailureCause reports a failed call outcome whose cause is classified by
// Config.ExceptionFilter before counting. A filter that rejects cause
// leaves the breaker untouched. A filter that panics is treated as if it
// had rejected cause and the panic is logged, never propagated.
func (b *CircuitBreaker) OnFailureCause(cause error) {
	if cause != nil && !b.shouldCount(cause) {
		return
	}
	b.onFailure()
}

// shouldCount invokes the configured ExceptionFilter, recovering from any
// panic and treating it as a reject.
func (b *CircuitBreaker) shouldCount(cause error) (accept bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("exception filter panicked, treating as rejected",
				zap.String("name", b.name), zap.Any("recovered", r))
			accept = false
		}
	}()
	return b.config.ExceptionFilter(cause)
}

// onFailure is the classified failure path shared by OnFailure and an
// accepted OnFailureCause.
//
//   - CLOSED: recorded in the counter; if the resulting snapshot exceeds
//     the failure-rate threshold, CAS to OPEN. A losing CAS means another
//     goroutine already tripped the breaker.
//   - HALF_OPEN: the trial failed, so the breaker reopens. A losing CAS
//     means another goroutine already moved the state.
//   - OPEN: a stale report; discarded.
func (b *CircuitBreaker) onFailure() {
	cur := b.current.Load()

	switch {
	case cur.isClosed():
		cur.counter.OnFailure()
		count := cur.counter.Count()
		if b.exceedsFailureThreshold(count) {
			if b.current.CompareAndSwap(cur, b.newOpenState()) {
				b.logStateTransition(StateOpen, &count)
			}
		}
	case cur.isHalfOpen():
		if b.current.CompareAndSwap(cur, b.newOpenState()) {
			b.logStateTransition(StateOpen, nil)
		}
	}
}

// exceedsFailureThreshold is the trip predicate: it fires only once there
// is at least one observation, the minimum request volume has been met,
// and the failure rate strictly exceeds the configured threshold.
func (b *CircuitBreaker) exceedsFailureThreshold(count intcounter.EventCount) bool {
	return count.Total() > 0 &&
		count.Total() >= b.config.MinimumRequestThreshold &&
		count.FailureRate() > b.config.FailureRateThreshold
}

func (b *CircuitBreaker) newClosedState() *state {
	return &state{
		circuitState: StateClosed,
		counter: intcounter.NewSlidingWindowCounter(
			b.clk, b.config.CounterSlidingWindow, b.config.CounterUpdateInterval),
		deadlineNanos: 0,
	}
}

func (b *CircuitBreaker) newOpenState() *state {
	return &state{
		circuitState:  StateOpen,
		counter:       intcounter.NoOp,
		deadlineNanos: b.clk.Now() + int64(b.config.CircuitOpenWindow),
	}
}

func (b *CircuitBreaker) newHalfOpenState() *state {
	return &state{
		circuitState:  StateHalfOpen,
		counter:       intcounter.NoOp,
		deadlineNanos: b.clk.Now() + int64(b.config.TrialRequestInterval),
	}
}

// logStateTransition emits the single observable side effect a transition
// has: a structured log line carrying the breaker's name, its new state,
// and, when tripping CLOSED -> OPEN, the triggering counts. The exact
// fields are not a stability contract.
func (b *CircuitBreaker) logStateTransition(to CircuitState, count *intcounter.EventCount) {
	fields := []zap.Field{zap.String("name", b.name), zap.Stringer("state", to)}
	if count != nil {
		fields = append(fields, zap.Uint64("failures", count.Failure), zap.Uint64("total", count.Total()))
	}
	b.logger.Info("circuit breaker state transition", fields...)
}
