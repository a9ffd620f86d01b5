/*
Package counter implements the event accounting used by the circuit breaker
while it is CLOSED. EventCounter is the contract; SlidingWindowCounter is the
live, lock-free implementation used in CLOSED, and NoOpCounter is the
zero-cost stand-in used in OPEN and HALF_OPEN where accounting would be
wasted work.

The sliding window is a ring of buckets, each covering one
counterUpdateInterval slice of the overall counterSlidingWindow. Rotation
happens lazily, on whichever goroutine's OnSuccess/OnFailure call first
notices the current bucket has aged out; the loser of that race simply
retries its increment against the bucket the winner installed. Count never
rotates: it skips buckets whose time slice has left the window.
*/
package counter
