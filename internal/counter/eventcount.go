package counter

// EventCount is an immutable snapshot of success/failure counts over some
// window. It is never mutated after creation.
type EventCount struct {
	Success uint64
	Failure uint64
}

// ZeroEventCount is the EventCount returned for an empty window.
var ZeroEventCount = EventCount{}

// Total returns Success + Failure.
func (c EventCount) Total() uint64 {
	return c.Success + c.Failure
}

// FailureRate returns Failure / Total, or 0 when Total is 0.
func (c EventCount) FailureRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Failure) / float64(total)
}
