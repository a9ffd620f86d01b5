/*
Package circuitbreaker implements a non-blocking circuit breaker: a small
state machine that sits in front of calls to a remote service, watches
their success/failure outcomes, and short-circuits new calls once the
remote side looks unhealthy.

The breaker holds exactly one immutable state behind an atomic pointer.
Every transition replaces that pointer with a CAS; a goroutine that loses
the CAS made no change and takes no further action, because some other
goroutine already drove the state machine forward on its behalf.

# Usage

	cfg, err := circuitbreaker.NewConfig(
		circuitbreaker.WithName("payments-api"),
		circuitbreaker.WithFailureRateThreshold(0.5),
		circuitbreaker.WithMinimumRequestThreshold(10),
		circuitbreaker.WithCircuitOpenWindow(30*time.Second),
		circuitbreaker.WithTrialRequestInterval(10*time.Second),
	)
	if err != nil {
		// Config error handling.
	}

	cb := circuitbreaker.New(clock.Monotonic(), cfg)

	if !cb.CanRequest() {
		return ErrCircuitOpen
	}

	if err := call(); err != nil {
		cb.OnFailureCause(err)
		return err
	}
	cb.OnSuccess()

# States

CLOSED lets every request through and tracks outcomes in a sliding window.
OPEN rejects every request until its deadline elapses. HALF_OPEN grants
exactly one trial request per deadline; a success returns the breaker to
CLOSED with a fresh counter, a failure sends it back to OPEN.

No method on a running CircuitBreaker ever returns an error to its caller;
the breaker is a best-effort observer of the calls it guards and must never
amplify an outage by failing on the instrumentation path.
*/
package circuitbreaker
