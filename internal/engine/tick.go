package engine

import (
	"math"

	"github.com/roach88/backpressure/internal/state"
)

// remainingEpsilon absorbs float drift when a time budget is drawn down in
// fractional steps.
const remainingEpsilon = 1e-9

// StepReport summarizes what a single Advance produced.
type StepReport struct {
	Generated float64
	Processed float64
	Refined   float64
	Credits   float64
	Research  float64
	Completed string // id of the objective completed this step
	Expired   string // id of the objective expired this step
	Ready     bool   // readiness was stamped this step
}

// Advance applies one simulation step of dt seconds and returns the new state.
//
// Advance is pure: the same s and dt always produce the same result and s is
// never modified. A non-positive dt returns an unchanged copy.
func (e *Engine) Advance(s *state.State, dt float64) *state.State {
	next, _ := e.AdvanceReport(s, dt)
	return next
}

// AdvanceReport is Advance plus a report of the step.
func (e *Engine) AdvanceReport(s *state.State, dt float64) (*state.State, StepReport) {
	next := s.Clone()
	var report StepReport
	if dt <= 0 {
		return next, report
	}

	next.Step++
	next.Stats.ElapsedSeconds += dt

	// Throughput-affecting configuration is read from s, never from next,
	// so lane order cannot bias the step.
	t := e.cat.Tuning()
	tolerance := e.QueueTolerance(s)
	reduction := e.LatencyReduction(s)
	throughputs := make([]Throughput, len(s.Lanes))
	for i, lane := range s.Lanes {
		throughputs[i] = e.LaneThroughput(s, lane)
	}

	share := 0.0
	if n := len(next.Lanes); n > 0 {
		share = e.GenerationRate(s) * dt / float64(n)
	}

	for i := range next.Lanes {
		lane := &next.Lanes[i]
		tp := throughputs[i]

		lane.Queue += share
		report.Generated += share

		processed := math.Min(lane.Queue, tp.Capacity*dt)
		lane.Queue = math.Max(0, lane.Queue-processed)
		report.Processed += processed

		reading := Latency(t.Latency, tp.ActiveModules, lane.Queue, tolerance, reduction)
		lane.Heat = 1 - reading.Penalty
		report.Refined += processed * tp.OutputMultiplier * reading.Penalty
	}

	next.Resources.Raw += report.Generated
	next.Resources.Refined += report.Refined
	next.Stats.LifetimeOutput += report.Refined

	report.Credits = report.Refined * e.CreditRate(s)
	next.Resources.Credits += report.Credits
	next.Stats.LifetimeCredits += report.Credits

	if next.Step%e.DropInterval(s) == 0 {
		next.Resources.Research++
		next.Stats.LifetimeResearch++
		report.Research++
	}

	e.progressActive(next, dt, report.Refined, &report)

	if next.Stats.ReadyAtStep == 0 && next.Stats.LifetimeOutput >= t.PrestigeThreshold {
		next.Stats.ReadyAtStep = next.Step
		report.Ready = true
		e.logger.Debug("prestige ready", "step", next.Step, "lifetime_output", next.Stats.LifetimeOutput)
	}

	return next, report
}

// progressActive applies refined output to the active objective.
// A target reached in the same step the time budget runs out completes.
func (e *Engine) progressActive(next *state.State, dt, refined float64, report *StepReport) {
	if next.Board.Active == "" {
		return
	}
	i, ok := next.Board.Find(next.Board.Active)
	if !ok {
		next.Board.Active = ""
		return
	}
	o := &next.Board.Objectives[i]
	o.Progress += refined
	if o.Timed() {
		o.Remaining = math.Max(0, o.Remaining-dt)
		if o.Remaining < remainingEpsilon {
			o.Remaining = 0
		}
	}

	switch {
	case o.Progress >= o.Target:
		o.Status = state.StatusCompleted
		next.Board.Active = ""
		next.Resources.Credits += o.RewardCredits
		next.Resources.Research += o.RewardResearch
		next.Stats.LifetimeCredits += o.RewardCredits
		next.Stats.LifetimeResearch += o.RewardResearch
		next.Stats.Completed++
		if o.Tier >= e.cat.Tuning().HighTier {
			next.Stats.HighTierCompleted++
		}
		report.Completed = o.ID
		report.Credits += o.RewardCredits
		report.Research += o.RewardResearch
		e.logger.Debug("objective completed", "id", o.ID, "step", next.Step, "tier", o.Tier)
	case o.Timed() && o.Remaining <= 0:
		o.Status = state.StatusExpired
		next.Board.Active = ""
		next.Stats.Expired++
		report.Expired = o.ID
		e.logger.Debug("objective expired", "id", o.ID, "step", next.Step, "progress", o.Progress)
	}
}

// AdvanceSteps applies n steps of dt seconds each.
func (e *Engine) AdvanceSteps(s *state.State, n int, dt float64) *state.State {
	next := s.Clone()
	for i := 0; i < n; i++ {
		next = e.Advance(next, dt)
	}
	return next
}
