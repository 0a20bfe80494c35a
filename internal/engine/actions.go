package engine

import (
	"github.com/roach88/backpressure/internal/state"
)

// PurchaseUpgrade buys the next level of a run upgrade with credits.
func (e *Engine) PurchaseUpgrade(s *state.State, id string) Outcome {
	def, ok := e.cat.Upgrade(id)
	if !ok {
		return rejected(ReasonUnknownUpgrade)
	}
	level := s.Upgrades[id]
	if level >= def.MaxLevel {
		return rejected(ReasonMaxLevel)
	}
	cost := def.CostAt(level)
	if s.Resources.Credits < cost {
		return rejected(ReasonInsufficientFunds)
	}

	next := s.Clone()
	next.Resources.Credits -= cost
	next.Upgrades[id] = level + 1
	return applied(next)
}

// UpgradeModule unlocks a module or raises its level with research.
func (e *Engine) UpgradeModule(s *state.State, kind string) Outcome {
	def, ok := e.cat.Module(kind)
	if !ok {
		return rejected(ReasonUnknownModule)
	}
	level := s.Modules[kind]
	if level >= def.MaxLevel {
		return rejected(ReasonMaxLevel)
	}
	cost := def.CostAt(level)
	if s.Resources.Research < cost {
		return rejected(ReasonInsufficientFunds)
	}

	next := s.Clone()
	next.Resources.Research -= cost
	next.Modules[kind] = level + 1
	return applied(next)
}

// ToggleModule enables or disables a module on one lane.
// Disabling is always allowed; enabling requires the module to be unlocked.
func (e *Engine) ToggleModule(s *state.State, lane, kind string) Outcome {
	i, ok := s.FindLane(lane)
	if !ok {
		return rejected(ReasonUnknownLane)
	}
	if _, ok := e.cat.Module(kind); !ok {
		return rejected(ReasonUnknownModule)
	}
	enable := !s.Lanes[i].HasModule(kind)
	if enable && s.Modules[kind] <= 0 {
		return rejected(ReasonModuleLocked)
	}

	next := s.Clone()
	next.Lanes[i] = next.Lanes[i].WithModule(kind, enable)
	return applied(next)
}

// SwitchProtocol pays the switch cost and makes id the active protocol.
func (e *Engine) SwitchProtocol(s *state.State, id string) Outcome {
	def, ok := e.cat.Protocol(id)
	if !ok {
		return rejected(ReasonUnknownProtocol)
	}
	if s.Protocol == id {
		return rejected(ReasonSameProtocol)
	}
	if s.Resources.Credits < def.SwitchCost {
		return rejected(ReasonInsufficientFunds)
	}

	next := s.Clone()
	next.Resources.Credits -= def.SwitchCost
	next.Protocol = id
	next.ProtocolsUsed = next.ProtocolsUsed.With(id)
	return applied(next)
}

// LaneCost returns the credit cost of the next lane.
func (e *Engine) LaneCost(s *state.State) float64 {
	return e.cat.Tuning().LaneCostAt(len(s.Lanes))
}

// AddLane buys a new empty lane with credits.
func (e *Engine) AddLane(s *state.State) Outcome {
	if len(s.Lanes) >= e.cat.Tuning().MaxLanes {
		return rejected(ReasonLaneLimit)
	}
	cost := e.LaneCost(s)
	if s.Resources.Credits < cost {
		return rejected(ReasonInsufficientFunds)
	}

	next := s.Clone()
	next.Resources.Credits -= cost
	next.Lanes = append(next.Lanes, state.Lane{ID: laneID(len(s.Lanes) + 1), Modules: []string{}})
	return applied(next)
}
