/*
Package clock provides the monotonic time source consumed by the circuit
breaker core. It exists so that state timeouts and sliding-window bucket
rotation can be exercised deterministically in tests without sleeping.

# Usage

	cb := circuitbreaker.New(clock.Monotonic(), cfg)

In a test, use a Manual clock instead so that deadlines can be advanced
without waiting on the wall clock:

	c := clock.NewManual(0)
	cb := circuitbreaker.New(c, cfg)
	c.Advance(time.Second)
*/
package clock
