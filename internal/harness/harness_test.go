package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backpressure/internal/state"
)

func TestRun_ScenarioFiles(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Flow))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "offline_replay.yaml"))
	require.NoError(t, err)

	a, err := Run(scenario)
	require.NoError(t, err)
	b, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, a.Trace, b.Trace)
}

func TestRun_ExpectMismatchIsReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectations fail the result",
		Flow: []FlowStep{
			{Action: "lane", Expect: &ExpectClause{Case: CaseApplied}},
			{Action: "advance", Args: map[string]any{"seconds": 1}, Expect: &ExpectClause{
				Case:   CaseApplied,
				Result: map[string]any{"step": 2},
			}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: "advance", Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `expected case "applied", got "rejected"`)
	assert.Contains(t, result.Errors[1], "expected result")
}

func TestRun_RejectedStepLeavesRunUnchanged(t *testing.T) {
	scenario := &Scenario{
		Name:        "rejections",
		Description: "Rejected actions have no effect",
		Flow: []FlowStep{
			{Action: "upgrade", Args: map[string]any{"id": "overclock"}},
			{Action: "toggle", Args: map[string]any{"lane": "lane-1", "kind": "verify"}},
			{Action: "abandon"},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: "upgrade", Case: CaseRejected, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	reasons := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		assert.Equal(t, CaseRejected, ev.Case)
		reasons[i] = ev.Result["reason"]
	}
	assert.Equal(t, []any{"insufficient_funds", "module_locked", "no_active_objective"}, reasons)
	assert.Equal(t, 0.0, result.State["step"])
}

func TestRun_AppliedActionResults(t *testing.T) {
	scenario := &Scenario{
		Name:        "purchases",
		Description: "Applied actions report what changed",
		Setup: []ActionStep{
			{Action: setupSet, Args: map[string]any{"resources.credits": 1000, "resources.research": 100}},
		},
		Flow: []FlowStep{
			{Action: "upgrade", Args: map[string]any{"id": "overclock"}},
			{Action: "module", Args: map[string]any{"kind": "compress"}},
			{Action: "toggle", Args: map[string]any{"lane": "lane-1", "kind": "compress"}},
			{Action: "protocol", Args: map[string]any{"id": "grpc"}},
			{Action: "lane"},
			{Action: "refresh"},
		},
		Assertions: []Assertion{{Type: AssertFinalState, Expect: map[string]any{"protocol": "grpc"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	results := make([]map[string]any, len(result.Trace))
	for i, ev := range result.Trace {
		require.Equal(t, CaseApplied, ev.Case, "step %d: %v", i, ev.Result)
		results[i] = ev.Result
	}
	assert.Equal(t, map[string]any{"level": 1}, results[0])
	assert.Equal(t, map[string]any{"level": 1}, results[1])
	assert.Equal(t, map[string]any{"enabled": true}, results[2])
	assert.Equal(t, map[string]any{"protocol": "grpc"}, results[3])
	assert.Equal(t, map[string]any{"lanes": 2}, results[4])
	assert.Equal(t, map[string]any{"generation": 1}, results[5])
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    ActionStep
		wantErr string
	}{
		{"rejected action", ActionStep{Action: "lane"}, "lane rejected: insufficient_funds"},
		{"bad index", ActionStep{Action: setupSet, Args: map[string]any{"lanes.5.queue": 1}}, `bad index "5"`},
		{"not a container", ActionStep{Action: setupSet, Args: map[string]any{"step.x": 1}}, "is not a container"},
		{"objective without target", ActionStep{Action: setupObjective, Args: map[string]any{"id": "x"}}, "positive target"},
		{"bad arg type", ActionStep{Action: "activate", Args: map[string]any{"id": 7}}, "expected string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{
				Name:       "setup",
				Setup:      []ActionStep{tt.step},
				Flow:       []FlowStep{{Action: "readings"}},
				Assertions: []Assertion{{Type: AssertTraceCount, Action: "readings", Count: 1}},
			}
			_, err := Run(scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to execute setup")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_FlowArgErrors(t *testing.T) {
	tests := []struct {
		name string
		step FlowStep
	}{
		{"missing id", FlowStep{Action: "activate"}},
		{"zero seconds", FlowStep{Action: "advance", Args: map[string]any{"seconds": 0}}},
		{"fractional steps", FlowStep{Action: "advance", Args: map[string]any{"steps": 1.5}}},
		{"negative reconcile", FlowStep{Action: "reconcile", Args: map[string]any{"seconds": -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{
				Name:       "args",
				Flow:       []FlowStep{tt.step},
				Assertions: []Assertion{{Type: AssertTraceCount, Action: tt.step.Action, Count: 1}},
			}
			_, err := Run(scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to execute flow")
		})
	}
}

func TestApplySet_NormalizesLanes(t *testing.T) {
	s := &state.State{}
	next, err := applySet(s, map[string]any{
		"lanes": []any{map[string]any{"id": "lane-1", "modules": []any{"verify", "cache", "verify"}}},
	})
	require.NoError(t, err)
	require.Len(t, next.Lanes, 1)
	assert.Equal(t, []string{"cache", "verify"}, next.Lanes[0].Modules)
	assert.NotNil(t, next.Modules)
}

func TestApplyObjective(t *testing.T) {
	s := &state.State{Board: state.Board{Generation: 2}}
	next, err := applyObjective(s, map[string]any{"id": "x", "target": 10, "time_limit": 30})
	require.NoError(t, err)

	require.Len(t, next.Board.Objectives, 1)
	o := next.Board.Objectives[0]
	assert.Equal(t, state.StatusOpen, o.Status)
	assert.Equal(t, 30.0, o.Remaining)
	assert.Equal(t, 2, next.Board.Generation)
	assert.Empty(t, s.Board.Objectives, "input must not change")
}

func TestLookupPath(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": []any{1.0, map[string]any{"c": "x"}}}}

	v, ok := lookupPath(doc, "a.b.1.c")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	for _, path := range []string{"a.z", "a.b.2", "a.b.x", "a.b.0.c"} {
		_, ok := lookupPath(doc, path)
		assert.False(t, ok, path)
	}
}
