package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
)

// NewBoardCommand creates the board command and its refresh subcommand.
func NewBoardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "board",
		Short:         "Show the objective board",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			run, _, err := sess.load(cmd.Context())
			if err != nil {
				return err
			}
			return sess.out.Success(newBoardView(sess.eng, run))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Replace the board with a new draw",
		Long: `Replace every objective on the board with a new deterministic draw.

Any active objective is dropped without counting as expired.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			run, _, err := sess.apply(cmd.Context(), func(s *state.State) engine.Outcome {
				return engine.Outcome{State: sess.eng.RefreshBoard(s)}
			})
			if err != nil {
				return err
			}
			return sess.out.Success(newBoardView(sess.eng, run))
		},
	})

	return cmd
}

// NewActivateCommand creates the activate command.
func NewActivateCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "activate <objective-id>", "Activate an open objective", 1,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.Activate(s, args[0])
		})
}

// NewAbandonCommand creates the abandon command.
func NewAbandonCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "abandon", "Abandon the active objective", 0,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.Abandon(s)
		})
}
