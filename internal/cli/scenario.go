package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/harness"
)

// ScenarioView reports a scenario run.
type ScenarioView struct {
	Path string `json:"path"`
	*harness.SuiteResult
}

// Text renders the pass/fail summary.
func (v ScenarioView) Text() string {
	var b strings.Builder
	mark := "✓"
	if !v.OK() {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %d/%d scenarios passed (%s)\n", mark, v.Passed, v.TotalScenarios, v.Path)
	for _, f := range v.Failures {
		name := f.Name
		if name == "" {
			name = f.ScenarioPath
		}
		fmt.Fprintf(&b, "  FAIL %s\n", name)
		for _, e := range f.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	return b.String()
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file|dir>",
		Short: "Run YAML simulation scenarios",
		Long: `Run one scenario file or every *.yaml scenario in a directory.

Each scenario starts a fresh run on a fake clock, so results never depend
on the save slot or wall time. Scenarios without their own catalog use
--catalog (or BACKPRESSURE_CATALOG) when set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			opts := []harness.Option{harness.WithLogger(newLogger(rootOpts, cmd.ErrOrStderr()))}
			if rootOpts.Catalog != "" {
				cat, err := loadCatalog(rootOpts.Catalog)
				if err != nil {
					return out.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
				}
				opts = append(opts, harness.WithCatalog(cat))
			}

			result, err := harness.RunSuite(args[0], opts...)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidArgument, "failed to find scenarios", err)
			}

			if err := out.Success(ScenarioView{Path: args[0], SuiteResult: result}); err != nil {
				return err
			}
			if !result.OK() {
				return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
			}
			return nil
		},
	}
}
