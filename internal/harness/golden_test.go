package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_TargetOneCompletion(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "target_one_completion.yaml"))
	require.NoError(t, err)

	// Regenerate with: go test ./internal/harness -run TestRunWithGolden -update
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalTrace_Canonical(t *testing.T) {
	trace := []TraceEvent{{
		Seq:    1,
		Action: "activate",
		Args:   map[string]any{"id": "a<b"},
		Case:   CaseRejected,
		Result: map[string]any{"reason": "unknown_objective"},
	}}

	out, err := MarshalTrace("escapes", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"escapes","trace":[{"seq":1,"action":"activate","args":{"id":"a<b"},"case":"rejected","result":{"reason":"unknown_objective"}}]}`,
		string(out))
}

func TestMarshalTrace_OmitsEmptyArgs(t *testing.T) {
	out, err := MarshalTrace("empty", []TraceEvent{{Seq: 1, Action: "lane", Case: CaseApplied}})
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[{"seq":1,"action":"lane","case":"applied"}]}`, string(out))
}
