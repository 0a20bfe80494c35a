package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/state"
)

// VerifyView reports a determinism check.
type VerifyView struct {
	Steps         int     `json:"steps"`
	Seconds       float64 `json:"seconds"`
	Deterministic bool    `json:"deterministic"`
	First         string  `json:"first"`
	Second        string  `json:"second"`
	Reloaded      string  `json:"reloaded"`
}

// Text renders the verdict.
func (v VerifyView) Text() string {
	if v.Deterministic {
		return fmt.Sprintf("✓ Deterministic over %d step(s): %s\n", v.Steps, v.First)
	}
	return fmt.Sprintf("✗ Non-deterministic over %d step(s)\n  first    %s\n  second   %s\n  reloaded %s\n",
		v.Steps, v.First, v.Second, v.Reloaded)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var steps int
	var seconds float64

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that advancing the saved run is deterministic",
		Long: `Advance the saved run twice from the same snapshot, and once more from
an encode/decode round trip, and compare the resulting fingerprints.

Nothing is saved. Exits 1 if any fingerprint differs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if steps < 1 || seconds <= 0 {
				return sess.out.Fail(ExitCommandError, ErrCodeInvalidArgument,
					"--steps must be at least 1 and --seconds must be positive", nil)
			}

			run, _, err := sess.load(cmd.Context())
			if err != nil {
				return err
			}
			data, err := state.Encode(run)
			if err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode run", err)
			}
			reloaded, err := state.Decode(data)
			if err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to decode run", err)
			}

			view := VerifyView{
				Steps:    steps,
				Seconds:  seconds,
				First:    state.MustFingerprint(sess.eng.AdvanceSteps(run, steps, seconds)),
				Second:   state.MustFingerprint(sess.eng.AdvanceSteps(run, steps, seconds)),
				Reloaded: state.MustFingerprint(sess.eng.AdvanceSteps(reloaded, steps, seconds)),
			}
			view.Deterministic = view.First == view.Second && view.First == view.Reloaded

			if err := sess.out.Success(view); err != nil {
				return err
			}
			if !view.Deterministic {
				return NewExitError(ExitFailure, "non-deterministic advance")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 100, "number of steps")
	cmd.Flags().Float64Var(&seconds, "seconds", 1, "seconds per step")

	return cmd
}
