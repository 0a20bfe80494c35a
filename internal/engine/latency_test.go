package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/backpressure/internal/catalog"
)

func testLatency() catalog.LatencyTuning {
	return testContent().Tuning.Latency
}

func TestLatency_Display(t *testing.T) {
	r := Latency(testLatency(), 2, 10, 4, 0)
	assert.Equal(t, 39.0, r.Display) // 20 + 2*8 + 0.5*6
}

func TestLatency_FreeDepth(t *testing.T) {
	lt := testLatency()
	for n := 0; n <= 3; n++ {
		assert.Equal(t, 1.0, Latency(lt, n, 0, 0, 0).Penalty, "modules=%d", n)
	}
}

func TestLatency_FourModulesBelowThree(t *testing.T) {
	lt := testLatency()
	three := Latency(lt, 3, 0, 0, 0).Penalty
	four := Latency(lt, 4, 0, 0, 0).Penalty
	assert.Less(t, four, three)
	assert.InDelta(t, 0.92, four, 1e-12)
}

func TestLatency_Reduction(t *testing.T) {
	r := Latency(testLatency(), 5, 0, 0, 0.5)
	assert.InDelta(t, 0.92, r.Penalty, 1e-12) // raw 0.84 recovers half of 0.16
}

func TestLatency_Floor(t *testing.T) {
	lt := testLatency()
	assert.Equal(t, 0.1, Latency(lt, 0, 1e6, 0, 0).Penalty)
	assert.InDelta(t, 0.55, Latency(lt, 0, 1e6, 0, 0.5).Penalty, 1e-12)
	assert.Equal(t, 0.1, Latency(lt, 100, 0, 0, 0).Penalty)
}

func TestLatency_Tolerance(t *testing.T) {
	r := Latency(testLatency(), 0, 5, 10, 0)
	assert.Equal(t, 1.0, r.Penalty)
	assert.Equal(t, 20.0, r.Display)
}

func TestLatency_BoundsAndMonotonicity(t *testing.T) {
	lt := testLatency()
	queues := []float64{0, 1, 10, 100, 450, 1000, 1e5}
	reductions := []float64{0, 0.25, 0.9, 1}

	for _, red := range reductions {
		for n := 0; n <= 15; n++ {
			for qi, q := range queues {
				p := Latency(lt, n, q, 0, red).Penalty
				assert.GreaterOrEqual(t, p, 0.1)
				assert.LessOrEqual(t, p, 1.0)

				assert.LessOrEqual(t, Latency(lt, n+1, q, 0, red).Penalty, p,
					"penalty must not rise with modules (n=%d q=%v)", n, q)
				if qi+1 < len(queues) {
					assert.LessOrEqual(t, Latency(lt, n, queues[qi+1], 0, red).Penalty, p,
						"penalty must not rise with queue (n=%d q=%v)", n, q)
				}
			}
		}
	}
}
