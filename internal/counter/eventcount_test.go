package counter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aureliano/circuitbreaker/internal/counter"
)

func TestEventCountTotal(t *testing.T) {
	c := counter.EventCount{Success: 4, Failure: 6}
	assert.EqualValues(t, 10, c.Total())
}

func TestEventCountFailureRate(t *testing.T) {
	c := counter.EventCount{Success: 5, Failure: 5}
	assert.Equal(t, 0.5, c.FailureRate())
}

func TestEventCountFailureRateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, counter.ZeroEventCount.FailureRate())
	assert.EqualValues(t, 0, counter.ZeroEventCount.Total())
}
