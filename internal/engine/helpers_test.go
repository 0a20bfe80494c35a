package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

func testModule(kind string) catalog.ModuleDef {
	return catalog.ModuleDef{
		Kind:             kind,
		UnlockCost:       10,
		CostGrowth:       2,
		MaxLevel:         3,
		Capacity:         2,
		CapacityPerLevel: 1,
		Output:           1.2,
		OutputPerLevel:   0.1,
	}
}

// testContent is a small synthetic catalog with round numbers.
func testContent() catalog.Content {
	return catalog.Content{
		Tuning: catalog.Tuning{
			BaseCapacity:      10,
			BaseGeneration:    4,
			StartingLanes:     1,
			MaxLanes:          3,
			LaneCost:          100,
			LaneCostGrowth:    2,
			NonCompliance:     0.5,
			PrestigeThreshold: 3000,
			HighTier:          3,
			BoardSize:         3,
			MinDropInterval:   2,
			Latency: catalog.LatencyTuning{
				Base:         20,
				PerModule:    8,
				PerUnit:      0.5,
				Depth:        0.08,
				FreeDepth:    3,
				Congestion:   0.002,
				Floor:        0.1,
				MaxReduction: 0.9,
			},
			Replay: catalog.ReplayTuning{ChunkSeconds: 60, CapSeconds: 3600},
		},
		Modules: []catalog.ModuleDef{
			testModule("cache"),
			testModule("compress"),
			testModule("encrypt"),
			testModule("shard"),
			testModule("verify"),
		},
		Protocols: []catalog.ProtocolDef{
			{ID: "http", Default: true, Throughput: 1, Credit: 1, DropInterval: 5},
			{ID: "grpc", Throughput: 2, Credit: 1.5, Requires: []string{"compress"}, SwitchCost: 50, DropInterval: 4},
			{ID: "mqtt", Throughput: 1, Credit: 2, Requires: []string{"verify"}, SwitchCost: 80, DropInterval: 3},
		},
		Upgrades: []catalog.UpgradeDef{
			{ID: "overclock", Category: catalog.CategorySpeed, MaxLevel: 3, BaseCost: 10, Growth: 2, Effect: 1},
			{ID: "intake", Category: catalog.CategoryGeneration, MaxLevel: 3, BaseCost: 10, Growth: 2, Effect: 0.5},
			{ID: "pricing", Category: catalog.CategoryCredit, MaxLevel: 3, BaseCost: 10, Growth: 2, Effect: 0.5},
			{ID: "routing", Category: catalog.CategoryLatency, MaxLevel: 2, BaseCost: 10, Growth: 2, Effect: 0.5},
			{ID: "buffers", Category: catalog.CategoryTolerance, MaxLevel: 2, BaseCost: 10, Growth: 2, Effect: 10},
			{ID: "telemetry", Category: catalog.CategoryResearch, MaxLevel: 2, BaseCost: 10, Growth: 2, Effect: 1},
		},
		Contracts: []catalog.ContractTemplate{
			{ID: "c-http", Protocol: "http", Target: 50, RewardCredits: 500, RewardResearch: 3, Tier: 1},
			{ID: "c-grpc", Protocol: "grpc", Target: 100, TimeLimit: 30, RewardCredits: 100, Tier: 3},
			{ID: "c-mqtt", Protocol: "mqtt", Target: 80, RewardCredits: 50, Tier: 2},
			{ID: "c-late", Protocol: "http", Target: 200, Tier: 3, MinResets: 1},
		},
		Perks: []catalog.PerkDef{
			{ID: "wide-pipes", Category: catalog.CategoryCapacity, MaxLevel: 2, Cost: 1, Effect: 0.5},
			{ID: "refinery", Category: catalog.CategoryOutput, MaxLevel: 2, Cost: 1, Effect: 0.5},
			{ID: "firehose", Category: catalog.CategoryGeneration, MaxLevel: 2, Cost: 1, Effect: 0.5},
			{ID: "head-start", Category: catalog.CategoryHeadStart, MaxLevel: 5, Cost: 2, Effect: 1},
			{ID: "night-shift", Category: catalog.CategoryOffline, MaxLevel: 1, Cost: 1, Effect: 1800},
			{ID: "low-latency", Category: catalog.CategoryLatency, MaxLevel: 1, Cost: 1, Effect: 0.2},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return newEngineWith(t, testContent())
}

func newEngineWith(t *testing.T, c catalog.Content) *Engine {
	t.Helper()
	cat, err := catalog.New(c)
	require.NoError(t, err)
	return New(cat, WithLogger(DiscardLogger()))
}

// freshState returns the run-start state with no meta progress.
func freshState(e *Engine) *state.State {
	return e.NewRun(state.Meta{})
}

// withObjective replaces the board with a single open objective.
func withObjective(s *state.State, o state.Objective) *state.State {
	next := s.Clone()
	if o.Status == "" {
		o.Status = state.StatusOpen
	}
	if o.Remaining == 0 {
		o.Remaining = o.TimeLimit
	}
	next.Board = state.Board{Objectives: []state.Objective{o}}
	return next
}

func mustApply(t *testing.T, o Outcome) *state.State {
	t.Helper()
	require.True(t, o.OK(), "rejected: %s", o.Reason)
	return o.State
}
