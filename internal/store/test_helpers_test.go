package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/testutil"
)

// createTestStore creates a new store in a temp dir with fixed record IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("rec")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestState returns a fully populated state whose collections are
// already in decoded form, so fingerprints survive a round trip.
func createTestState(step int64) *state.State {
	return &state.State{
		Resources: state.Resources{Raw: 10, Refined: 8, Credits: 5.5, Research: 2},
		Lanes: []state.Lane{
			{ID: "lane-1", Queue: 3, Heat: 0.1, Modules: []string{"compress", "verify"}},
		},
		Modules:       map[string]int{"compress": 1, "verify": 2},
		Upgrades:      map[string]int{"intake": 1},
		Protocol:      "http",
		ProtocolsUsed: state.NewProtocolSet("http"),
		Board: state.Board{
			Objectives: []state.Objective{
				{ID: "warmup", Protocol: "http", Target: 50, Status: state.StatusOpen, Tier: 1},
			},
		},
		Meta:  state.Meta{Perks: map[string]int{}},
		Stats: state.Stats{LifetimeOutput: 100},
		Step:  step,
	}
}
