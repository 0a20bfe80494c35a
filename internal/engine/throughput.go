package engine

import (
	"math"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

// Throughput is the processing profile of one lane.
type Throughput struct {
	Capacity         float64 // units per second
	OutputMultiplier float64
	ActiveModules    int
}

// LaneThroughput computes the processing profile of lane under s.
// A module counts only when it is enabled on the lane and unlocked globally.
func (e *Engine) LaneThroughput(s *state.State, lane state.Lane) Throughput {
	t := e.cat.Tuning()
	tp := Throughput{Capacity: t.BaseCapacity, OutputMultiplier: 1}

	for _, kind := range lane.Modules {
		level := s.Modules[kind]
		def, ok := e.cat.Module(kind)
		if !ok || level <= 0 {
			continue
		}
		extra := float64(level - 1)
		tp.Capacity += def.Capacity + def.CapacityPerLevel*extra
		tp.OutputMultiplier *= def.Output + def.OutputPerLevel*extra
		tp.ActiveModules++
	}

	tp.Capacity += e.cat.UpgradeEffect(s.Upgrades, catalog.CategorySpeed)

	if proto, ok := e.cat.Protocol(s.Protocol); ok {
		tp.Capacity *= proto.Throughput
		if !compliant(s, lane, proto) {
			tp.OutputMultiplier *= t.NonCompliance
		}
	}

	tp.Capacity *= 1 + e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryCapacity)
	tp.OutputMultiplier *= 1 + e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryOutput)
	return tp
}

// Compliant reports whether lane satisfies the module requirements of the
// active protocol.
func (e *Engine) Compliant(s *state.State, lane state.Lane) bool {
	proto, ok := e.cat.Protocol(s.Protocol)
	if !ok {
		return true
	}
	return compliant(s, lane, proto)
}

func compliant(s *state.State, lane state.Lane, proto catalog.ProtocolDef) bool {
	for _, req := range proto.Requires {
		if !lane.HasModule(req) || s.Modules[req] <= 0 {
			return false
		}
	}
	return true
}

// GenerationRate is the total raw input per second across all lanes.
func (e *Engine) GenerationRate(s *state.State) float64 {
	t := e.cat.Tuning()
	return t.BaseGeneration * float64(len(s.Lanes)) *
		(1 + e.cat.UpgradeEffect(s.Upgrades, catalog.CategoryGeneration)) *
		(1 + e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryGeneration))
}

// CreditRate is the currency earned per unit of refined output.
func (e *Engine) CreditRate(s *state.State) float64 {
	base := 1.0
	if proto, ok := e.cat.Protocol(s.Protocol); ok {
		base = proto.Credit
	}
	return base *
		(1 + e.cat.UpgradeEffect(s.Upgrades, catalog.CategoryCredit)) *
		(1 + e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryCredit))
}

// DropInterval is the number of steps between research drops.
func (e *Engine) DropInterval(s *state.State) int64 {
	t := e.cat.Tuning()
	interval := float64(t.MinDropInterval)
	if proto, ok := e.cat.Protocol(s.Protocol); ok {
		interval = float64(proto.DropInterval)
	}
	interval -= e.cat.UpgradeEffect(s.Upgrades, catalog.CategoryResearch)
	interval -= e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryResearch)
	return int64(math.Max(float64(t.MinDropInterval), math.Floor(interval)))
}

// LatencyReduction is the fraction of lost efficiency recovered by upgrades
// and perks, capped at the tuning maximum.
func (e *Engine) LatencyReduction(s *state.State) float64 {
	r := e.cat.UpgradeEffect(s.Upgrades, catalog.CategoryLatency) +
		e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryLatency)
	return math.Min(e.cat.Tuning().Latency.MaxReduction, r)
}

// QueueTolerance is the queue depth ignored by the congestion penalty.
func (e *Engine) QueueTolerance(s *state.State) float64 {
	return e.cat.UpgradeEffect(s.Upgrades, catalog.CategoryTolerance)
}

// LaneReading is a display snapshot of one lane.
type LaneReading struct {
	Lane       state.Lane
	Throughput Throughput
	Latency    LatencyReading
	Compliant  bool
}

// Readings computes the current throughput and latency of every lane.
func (e *Engine) Readings(s *state.State) []LaneReading {
	tolerance := e.QueueTolerance(s)
	reduction := e.LatencyReduction(s)
	out := make([]LaneReading, len(s.Lanes))
	for i, lane := range s.Lanes {
		tp := e.LaneThroughput(s, lane)
		out[i] = LaneReading{
			Lane:       lane,
			Throughput: tp,
			Latency:    Latency(e.cat.Tuning().Latency, tp.ActiveModules, lane.Queue, tolerance, reduction),
			Compliant:  e.Compliant(s, lane),
		}
	}
	return out
}
