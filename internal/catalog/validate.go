package catalog

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrTuningRange        = "E201" // tuning constant out of range
	ErrDuplicateID        = "E202" // duplicate definition id
	ErrDefaultProtocol    = "E203" // zero or several default protocols
	ErrUnknownRequirement = "E204" // protocol requires an undefined module
	ErrUnknownProtocol    = "E205" // contract references an undefined protocol
	ErrLevelBounds        = "E206" // max_level below 1
	ErrCost               = "E207" // negative cost or growth below 1
	ErrCategory           = "E208" // category not valid for the definition kind
	ErrContractShape      = "E209" // non-positive target, negative time limit or tier below 1
	ErrEmptyID            = "E210" // empty id
	ErrProtocolShape      = "E211" // non-positive multiplier or drop interval
	ErrEffectRange        = "E212" // negative capacity or effect, non-positive output
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is the error returned by New for malformed content.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "invalid catalog: " + strings.Join(msgs, "; ")
}

// Validate checks content against the catalog rules.
// Returns all errors found (does not fail-fast).
func Validate(c Content) ValidationErrors {
	var errs ValidationErrors
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	validateTuning(c.Tuning, add)

	modules := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		field := fmt.Sprintf("module[%d]", i)
		if m.Kind == "" {
			add(ErrEmptyID, field, "kind is required")
			continue
		}
		field = "module." + m.Kind
		if modules[m.Kind] {
			add(ErrDuplicateID, field, "duplicate module kind %q", m.Kind)
		}
		modules[m.Kind] = true
		if m.MaxLevel < 1 {
			add(ErrLevelBounds, field, "max_level must be at least 1, got %d", m.MaxLevel)
		}
		if m.UnlockCost < 0 || m.CostGrowth < 1 {
			add(ErrCost, field, "unlock_cost must be >= 0 and cost_growth >= 1")
		}
		if m.Output <= 0 {
			add(ErrCost, field, "output must be positive, got %v", m.Output)
		}
		if m.Capacity < 0 || m.CapacityPerLevel < 0 {
			add(ErrEffectRange, field, "capacity and capacity_per_level must be >= 0")
		}
		if m.MaxLevel >= 1 {
			top := float64(m.MaxLevel - 1)
			if m.Capacity+m.CapacityPerLevel*top < 0 {
				add(ErrEffectRange, field, "capacity at max_level must be >= 0")
			}
			if m.Output+m.OutputPerLevel*top <= 0 {
				add(ErrEffectRange, field, "output at max_level must be positive")
			}
		}
	}

	protocols := make(map[string]bool, len(c.Protocols))
	defaults := 0
	for i, p := range c.Protocols {
		field := fmt.Sprintf("protocol[%d]", i)
		if p.ID == "" {
			add(ErrEmptyID, field, "id is required")
			continue
		}
		field = "protocol." + p.ID
		if protocols[p.ID] {
			add(ErrDuplicateID, field, "duplicate protocol id %q", p.ID)
		}
		protocols[p.ID] = true
		if p.Default {
			defaults++
		}
		if p.Throughput <= 0 || p.Credit <= 0 || p.DropInterval < 1 {
			add(ErrProtocolShape, field, "throughput and credit must be positive and drop_interval at least 1")
		}
		if p.SwitchCost < 0 {
			add(ErrCost, field, "switch_cost must be >= 0")
		}
		for _, req := range p.Requires {
			if !modules[req] {
				add(ErrUnknownRequirement, field, "requires undefined module %q", req)
			}
		}
	}
	if defaults != 1 {
		add(ErrDefaultProtocol, "protocol", "exactly one default protocol is required, found %d", defaults)
	}

	seen := make(map[string]bool, len(c.Upgrades))
	for i, u := range c.Upgrades {
		field := fmt.Sprintf("upgrade[%d]", i)
		if u.ID == "" {
			add(ErrEmptyID, field, "id is required")
			continue
		}
		field = "upgrade." + u.ID
		if seen[u.ID] {
			add(ErrDuplicateID, field, "duplicate upgrade id %q", u.ID)
		}
		seen[u.ID] = true
		if !upgradeCategories[u.Category] {
			add(ErrCategory, field, "invalid upgrade category %q", u.Category)
		}
		if u.MaxLevel < 1 {
			add(ErrLevelBounds, field, "max_level must be at least 1, got %d", u.MaxLevel)
		}
		if u.BaseCost < 0 || u.Growth < 1 {
			add(ErrCost, field, "base_cost must be >= 0 and growth >= 1")
		}
		if u.Effect < 0 {
			add(ErrEffectRange, field, "effect must be >= 0, got %v", u.Effect)
		}
	}

	seen = make(map[string]bool, len(c.Contracts))
	for i, ct := range c.Contracts {
		field := fmt.Sprintf("contract[%d]", i)
		if ct.ID == "" {
			add(ErrEmptyID, field, "id is required")
			continue
		}
		field = "contract." + ct.ID
		if seen[ct.ID] {
			add(ErrDuplicateID, field, "duplicate contract id %q", ct.ID)
		}
		seen[ct.ID] = true
		if !protocols[ct.Protocol] {
			add(ErrUnknownProtocol, field, "undefined protocol %q", ct.Protocol)
		}
		if ct.Target <= 0 || ct.TimeLimit < 0 || ct.Tier < 1 || ct.MinResets < 0 {
			add(ErrContractShape, field, "target must be positive, time_limit and min_resets >= 0, tier >= 1")
		}
		if ct.RewardCredits < 0 || ct.RewardResearch < 0 {
			add(ErrCost, field, "rewards must be >= 0")
		}
	}

	seen = make(map[string]bool, len(c.Perks))
	for i, p := range c.Perks {
		field := fmt.Sprintf("perk[%d]", i)
		if p.ID == "" {
			add(ErrEmptyID, field, "id is required")
			continue
		}
		field = "perk." + p.ID
		if seen[p.ID] {
			add(ErrDuplicateID, field, "duplicate perk id %q", p.ID)
		}
		seen[p.ID] = true
		if !perkCategories[p.Category] {
			add(ErrCategory, field, "invalid perk category %q", p.Category)
		}
		if p.MaxLevel < 1 {
			add(ErrLevelBounds, field, "max_level must be at least 1, got %d", p.MaxLevel)
		}
		if p.Cost < 0 {
			add(ErrCost, field, "cost must be >= 0")
		}
		if p.Effect < 0 {
			add(ErrEffectRange, field, "effect must be >= 0, got %v", p.Effect)
		}
	}

	return errs
}

func validateTuning(t Tuning, add func(code, field, format string, args ...any)) {
	check := func(ok bool, field, rule string) {
		if !ok {
			add(ErrTuningRange, "tuning."+field, "%s", rule)
		}
	}
	check(t.BaseCapacity > 0, "base_capacity", "must be positive")
	check(t.BaseGeneration >= 0, "base_generation", "must be >= 0")
	check(t.MaxLanes >= 1, "max_lanes", "must be at least 1")
	check(t.StartingLanes >= 1 && t.StartingLanes <= t.MaxLanes, "starting_lanes", "must be between 1 and max_lanes")
	check(t.LaneCost >= 0 && t.LaneCostGrowth >= 1, "lane_cost", "lane_cost must be >= 0 and lane_cost_growth >= 1")
	check(t.NonCompliance > 0 && t.NonCompliance <= 1, "non_compliance", "must be in (0, 1]")
	check(t.PrestigeThreshold > 0, "prestige_threshold", "must be positive")
	check(t.HighTier >= 1, "high_tier", "must be at least 1")
	check(t.BoardSize >= 1, "board_size", "must be at least 1")
	check(t.MinDropInterval >= 1, "min_drop_interval", "must be at least 1")

	l := t.Latency
	check(l.Base >= 0 && l.PerModule >= 0 && l.PerUnit >= 0, "latency", "display constants must be >= 0")
	check(l.Depth >= 0 && l.Congestion >= 0, "latency", "penalty constants must be >= 0")
	check(l.FreeDepth >= 0, "latency.free_depth", "must be >= 0")
	check(l.Floor > 0 && l.Floor <= 1, "latency.floor", "must be in (0, 1]")
	check(l.MaxReduction >= 0 && l.MaxReduction <= 1, "latency.max_reduction", "must be in [0, 1]")

	check(t.Replay.ChunkSeconds > 0, "replay.chunk_seconds", "must be positive")
	check(t.Replay.CapSeconds >= 0, "replay.cap_seconds", "must be >= 0")
}
