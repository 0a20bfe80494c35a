package engine

import (
	"fmt"
	"math"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

// Ready reports whether lifetime output has reached the prestige threshold.
func (e *Engine) Ready(s *state.State) bool {
	return s.Stats.LifetimeOutput >= e.cat.Tuning().PrestigeThreshold
}

// RewardPreview returns the persistent currency a reset would grant now.
// Never less than 1.
func (e *Engine) RewardPreview(s *state.State) float64 {
	reward := math.Floor(math.Pow(s.Stats.LifetimeOutput, 0.25)) +
		0.5*float64(s.Stats.HighTierCompleted) +
		0.25*float64(s.Stats.Completed) +
		float64(s.ProtocolsUsed.Len())
	return math.Max(1, reward)
}

// Reset ends the run and starts a new one.
//
// Only Meta survives: Resets is incremented and Earned grows by the reward.
// LastAdvance carries over so the next reconcile does not replay the
// finished run's idle time.
func (e *Engine) Reset(s *state.State) *state.State {
	reward := e.RewardPreview(s)
	meta := s.Meta.Clone()
	meta.Resets++
	meta.Earned += reward

	next := e.NewRun(meta)
	next.LastAdvance = s.LastAdvance
	e.logger.Debug("prestige reset",
		"resets", meta.Resets,
		"reward", reward,
		"lifetime_output", s.Stats.LifetimeOutput,
		"completed", s.Stats.Completed)
	return next
}

// Prestige is Reset gated on Ready.
func (e *Engine) Prestige(s *state.State) Outcome {
	if !e.Ready(s) {
		return rejected(ReasonNotReady)
	}
	return applied(e.Reset(s))
}

// NewRun returns the run-start state for meta.
// The head-start perk adds starting lanes, capped at the lane limit.
func (e *Engine) NewRun(meta state.Meta) *state.State {
	t := e.cat.Tuning()
	lanes := t.StartingLanes + int(e.cat.PerkEffect(meta.Perks, catalog.CategoryHeadStart))
	if lanes > t.MaxLanes {
		lanes = t.MaxLanes
	}

	s := &state.State{
		Lanes:         make([]state.Lane, lanes),
		Modules:       map[string]int{},
		Upgrades:      map[string]int{},
		Protocol:      e.cat.DefaultProtocol(),
		ProtocolsUsed: state.NewProtocolSet(e.cat.DefaultProtocol()),
		Board: state.Board{
			Objectives: e.GenerateBoard(meta.Resets, 0),
		},
		Meta: meta.Clone(),
	}
	for i := range s.Lanes {
		s.Lanes[i] = state.Lane{ID: laneID(i + 1), Modules: []string{}}
	}
	return s
}

func laneID(n int) string {
	return fmt.Sprintf("lane-%d", n)
}

// PurchasePerk buys the next level of a perk with persistent currency.
func (e *Engine) PurchasePerk(s *state.State, id string) Outcome {
	def, ok := e.cat.Perk(id)
	if !ok {
		return rejected(ReasonUnknownPerk)
	}
	if s.Meta.Perks[id] >= def.MaxLevel {
		return rejected(ReasonMaxLevel)
	}
	if s.Meta.Balance() < def.Cost {
		return rejected(ReasonInsufficientFunds)
	}

	next := s.Clone()
	next.Meta.Perks[id]++
	next.Meta.Spent += def.Cost
	return applied(next)
}
