package counter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aureliano/circuitbreaker/internal/counter"
)

func TestNoOpCounterIgnoresOutcomes(t *testing.T) {
	c := counter.NoOp
	c.OnSuccess()
	c.OnFailure()
	c.OnSuccess()

	assert.Equal(t, counter.ZeroEventCount, c.Count())
}
