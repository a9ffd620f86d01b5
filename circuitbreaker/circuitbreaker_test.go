package circuitbreaker_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureliano/circuitbreaker/circuitbreaker"
	"github.com/aureliano/circuitbreaker/clock"
)

func scenarioConfig(t *testing.T, opts ...circuitbreaker.Option) circuitbreaker.Config {
	t.Helper()
	base := []circuitbreaker.Option{
		circuitbreaker.WithFailureRateThreshold(0.5),
		circuitbreaker.WithMinimumRequestThreshold(10),
		circuitbreaker.WithCircuitOpenWindow(time.Second),
		circuitbreaker.WithTrialRequestInterval(time.Second),
		circuitbreaker.WithCounterSlidingWindow(time.Minute),
		circuitbreaker.WithCounterUpdateInterval(time.Second),
	}
	cfg, err := circuitbreaker.NewConfig(append(base, opts...)...)
	require.NoError(t, err)
	return cfg
}

// S1 — Trip: start CLOSED; record 4 successes then 6 failures. After the
// 10th outcome, CanRequest returns false; state is OPEN.
func TestTrip(t *testing.T) {
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))

	for i := 0; i < 4; i++ {
		cb.OnSuccess()
	}
	for i := 0; i < 6; i++ {
		cb.OnFailure()
	}

	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
	assert.False(t, cb.CanRequest())
}

// S2 — No trip below min requests: start CLOSED; record 2 successes and 7
// failures (total=9). State remains CLOSED; CanRequest returns true.
func TestNoTripBelowMinimumRequests(t *testing.T) {
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))

	for i := 0; i < 2; i++ {
		cb.OnSuccess()
	}
	for i := 0; i < 7; i++ {
		cb.OnFailure()
	}

	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
	assert.True(t, cb.CanRequest())
}

// S3 — No trip at exact threshold: start CLOSED; record 5 successes and 5
// failures (rate=0.5, not >). State remains CLOSED.
func TestNoTripAtExactThreshold(t *testing.T) {
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))

	for i := 0; i < 5; i++ {
		cb.OnSuccess()
	}
	for i := 0; i < 5; i++ {
		cb.OnFailure()
	}

	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

// S4 — Half-open success closes: from OPEN, advance clock by 1s;
// CanRequest returns true for exactly one caller (state becomes
// HALF_OPEN); report OnSuccess; state is CLOSED; counter is reset.
func TestHalfOpenSuccessCloses(t *testing.T) {
	clk := clock.NewManual(0)
	cb := circuitbreaker.New(clk, scenarioConfig(t))
	tripBreaker(cb)
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	clk.Advance(time.Second)
	require.True(t, cb.CanRequest())
	require.Equal(t, circuitbreaker.StateHalfOpen, cb.State())

	cb.OnSuccess()
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())

	// A fresh CLOSED state carries a fresh counter: six more failures
	// alone (below the 10-request minimum) must not retrip it.
	for i := 0; i < 6; i++ {
		cb.OnFailure()
	}
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

// S5 — Half-open failure reopens: from OPEN, advance 1s; single trial
// granted; OnFailure reported; state is OPEN; next CanRequest before
// another 1s returns false.
func TestHalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewManual(0)
	cb := circuitbreaker.New(clk, scenarioConfig(t))
	tripBreaker(cb)

	clk.Advance(time.Second)
	require.True(t, cb.CanRequest())
	require.Equal(t, circuitbreaker.StateHalfOpen, cb.State())

	cb.OnFailure()
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
	assert.False(t, cb.CanRequest())
}

// S6 — Concurrent trial singularity: from OPEN, advance 1s; 100 goroutines
// simultaneously call CanRequest; exactly one returns true, the rest
// return false; state is HALF_OPEN.
func TestConcurrentTrialSingularity(t *testing.T) {
	clk := clock.NewManual(0)
	cb := circuitbreaker.New(clk, scenarioConfig(t))
	tripBreaker(cb)
	clk.Advance(time.Second)

	const callers = 100
	var granted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if cb.CanRequest() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, granted.Load())
	assert.Equal(t, circuitbreaker.StateHalfOpen, cb.State())
}

// S7 — Filter reject does not count: with a filter that rejects cause C,
// repeated OnFailureCause(C) in CLOSED never trips the breaker regardless
// of count.
func TestFilterRejectDoesNotCount(t *testing.T) {
	errCause := errors.New("boom")
	reject := func(cause error) bool { return !errors.Is(cause, errCause) }

	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t,
		circuitbreaker.WithExceptionFilter(reject)))

	for i := 0; i < 100; i++ {
		cb.OnFailureCause(errCause)
	}

	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

// S8 — Filter fault is safe: with a filter that always panics,
// OnFailureCause leaves the breaker in CLOSED (failure not counted), and no
// panic escapes.
func TestFilterPanicIsSafe(t *testing.T) {
	panicky := func(cause error) bool { panic("filter exploded") }

	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t,
		circuitbreaker.WithExceptionFilter(panicky)))

	assert.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			cb.OnFailureCause(errors.New("boom"))
		}
	})

	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

// A success reported while OPEN is a stale report and must not re-close the
// circuit without passing through HALF_OPEN.
func TestStaleSuccessWhileOpenIsIgnored(t *testing.T) {
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))
	tripBreaker(cb)
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	cb.OnSuccess()
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
}

// Regardless of the nil-cause overload, OnFailure behaves like
// OnFailureCause(nil): the filter is not given a chance to reject it.
func TestOnFailureBypassesFilter(t *testing.T) {
	neverAccept := func(error) bool { return false }
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t,
		circuitbreaker.WithExceptionFilter(neverAccept)))

	for i := 0; i < 10; i++ {
		cb.OnFailure()
	}

	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
}

func TestAnonymousBreakersGetDistinctNames(t *testing.T) {
	cb1 := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))
	cb2 := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t))

	assert.NotEqual(t, cb1.Name(), cb2.Name())
}

func TestNamedBreakerKeepsItsName(t *testing.T) {
	cb := circuitbreaker.New(clock.NewManual(0), scenarioConfig(t, circuitbreaker.WithName("checkout")))
	assert.Equal(t, "checkout", cb.Name())
}

// No direct CLOSED -> HALF_OPEN or OPEN -> CLOSED transition exists.
func TestNoShortcutTransitions(t *testing.T) {
	clk := clock.NewManual(0)
	cb := circuitbreaker.New(clk, scenarioConfig(t))

	// CLOSED, below threshold: a success can never produce HALF_OPEN.
	cb.OnSuccess()
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())

	tripBreaker(cb)
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	// OPEN, deadline not yet elapsed: OnSuccess must not close it.
	cb.OnSuccess()
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
}

func tripBreaker(cb *circuitbreaker.CircuitBreaker) {
	for i := 0; i < 4; i++ {
		cb.OnSuccess()
	}
	for i := 0; i < 6; i++ {
		cb.OnFailure()
	}
}

func ExampleCircuitBreaker() {
	cfg, _ := circuitbreaker.NewConfig(circuitbreaker.WithName("example"))
	cb := circuitbreaker.New(clock.NewManual(0), cfg)

	if cb.CanRequest() {
		cb.OnSuccess()
	}

	fmt.Println(cb.State())
	// Output: closed
}
