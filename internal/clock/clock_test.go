package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	var clk Clock = RealClock{}
	assert.False(t, clk.Now().IsZero())
}
