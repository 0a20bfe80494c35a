package engine

import (
	"math"

	"github.com/roach88/backpressure/internal/catalog"
)

// LatencyReading is the output of the latency model.
type LatencyReading struct {
	Display float64 // milliseconds, for display only
	Penalty float64 // output efficiency in [Floor, 1]
}

// Latency computes the display latency and the efficiency penalty of a lane.
//
// Module chains longer than t.FreeDepth and queue depth beyond tolerance
// reduce the penalty down to t.Floor. A reduction fraction recovers that
// share of the lost efficiency. Pure; inputs are assumed non-negative.
func Latency(t catalog.LatencyTuning, activeModules int, queue, tolerance, reduction float64) LatencyReading {
	effective := math.Max(0, queue-tolerance)
	modules := float64(activeModules)

	display := t.Base + t.PerModule*modules + t.PerUnit*effective

	depth := t.Depth * math.Max(0, modules-float64(t.FreeDepth))
	congestion := t.Congestion * effective
	raw := math.Max(t.Floor, 1-depth-congestion)

	return LatencyReading{
		Display: display,
		Penalty: math.Min(1, raw+reduction*(1-raw)),
	}
}
