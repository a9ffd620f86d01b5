package counter

import (
	"time"

	"go.uber.org/atomic"

	"github.com/aureliano/circuitbreaker/clock"
)

// bucket holds the success/failure counts attributed to one time slice of
// the sliding window. Once published into a ring slot it is never replaced
// in place: a new slot is owned by a new *bucket, and its counters are only
// ever incremented, never reset, so concurrent increments racing a
// rotation are never lost (they either land on the old bucket, which is
// still correctly attributed to its slot, or on the new one).
type bucket struct {
	// slot is the bucketWidth-sized time slice this bucket belongs to,
	// i.e. nowNanos / bucketWidth. Fixed at creation.
	slot int64

	success atomic.Uint64
	failure atomic.Uint64
}

// SlidingWindowCounter is the CLOSED-state EventCounter. It divides the
// configured window into a fixed ring of buckets, each bucketWidth wide,
// and aggregates over whichever buckets are still within the window at
// Count time. Every operation is lock-free: increments are atomic adds on
// the current bucket, and rotating a ring slot into a new time window is a
// CAS on that slot's bucket pointer. A goroutine that loses the CAS simply
// re-reads the slot and retries; it never writes to a discarded bucket.
type SlidingWindowCounter struct {
	clk         clock.Clock
	bucketWidth int64
	numBuckets  int64
	buckets     []atomic.Pointer[bucket]
}

// NewSlidingWindowCounter returns a counter aggregating over the most
// recent window, divided into buckets of width bucketWidth. window must be
// >= bucketWidth; bucketWidth must be positive.
func NewSlidingWindowCounter(clk clock.Clock, window, bucketWidth time.Duration) *SlidingWindowCounter {
	if bucketWidth <= 0 {
		bucketWidth = window
	}
	numBuckets := int64(window / bucketWidth)
	if int64(window)%int64(bucketWidth) != 0 {
		numBuckets++
	}
	if numBuckets < 1 {
		numBuckets = 1
	}

	return &SlidingWindowCounter{
		clk:         clk,
		bucketWidth: int64(bucketWidth),
		numBuckets:  numBuckets,
		buckets:     make([]atomic.Pointer[bucket], numBuckets),
	}
}

// OnSuccess implements EventCounter.
func (c *SlidingWindowCounter) OnSuccess() {
	c.currentBucket().success.Inc()
}

// OnFailure implements EventCounter.
func (c *SlidingWindowCounter) OnFailure() {
	c.currentBucket().failure.Inc()
}

// Count implements EventCounter. It sums every bucket whose time slice
// still falls within the window ending now, dropping the rest. Each bucket
// is read with a single atomic Load of its pointer plus atomic reads of its
// counters, so the snapshot is consistent per bucket even though a rotation
// or a concurrent increment may be landing on a different bucket at the
// same instant.
func (c *SlidingWindowCounter) Count() EventCount {
	now := c.clk.Now()
	windowStart := now - c.bucketWidth*c.numBuckets

	var success, failure uint64
	for i := range c.buckets {
		b := c.buckets[i].Load()
		if b == nil {
			continue
		}
		if b.slot*c.bucketWidth < windowStart {
			continue
		}
		success += b.success.Load()
		failure += b.failure.Load()
	}

	return EventCount{Success: success, Failure: failure}
}

// currentBucket returns the bucket owning the current time slot, rotating
// the ring slot if its previous occupant belongs to an earlier slot.
func (c *SlidingWindowCounter) currentBucket() *bucket {
	now := c.clk.Now()
	slot := now / c.bucketWidth
	slotPtr := &c.buckets[slot%c.numBuckets]

	for {
		cur := slotPtr.Load()
		if cur != nil && cur.slot == slot {
			return cur
		}

		fresh := &bucket{slot: slot}
		if slotPtr.CompareAndSwap(cur, fresh) {
			return fresh
		}
		// Lost the rotation race; reload and check whether the winner's
		// bucket already matches our slot before trying again.
	}
}
