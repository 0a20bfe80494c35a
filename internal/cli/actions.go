package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
)

// actionFunc applies one engine action to a loaded run.
type actionFunc func(e *engine.Engine, s *state.State, args []string) engine.Outcome

// actionCommand builds a command that loads the run, applies fn and saves
// the result. A rejected action exits with ExitFailure and saves nothing.
func actionCommand(rootOpts *RootOptions, use, short string, nargs int, fn actionFunc) *cobra.Command {
	name := strings.Fields(use)[0]
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			_, snap, err := sess.apply(cmd.Context(), func(s *state.State) engine.Outcome {
				return fn(sess.eng, s, args)
			})
			if err != nil {
				return err
			}
			return sess.out.Success(savedView(name, strings.Join(args, " "), snap))
		},
	}
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "upgrade <upgrade-id>", "Buy one level of a run upgrade with credits", 1,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.PurchaseUpgrade(s, args[0])
		})
}

// NewModuleCommand creates the module command.
func NewModuleCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "module <kind>", "Unlock or level a module with research", 1,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.UpgradeModule(s, args[0])
		})
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "toggle <lane-id> <kind>", "Enable or disable a module on a lane", 2,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.ToggleModule(s, args[0], args[1])
		})
}

// NewProtocolCommand creates the protocol command.
func NewProtocolCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "protocol <protocol-id>", "Switch the active protocol", 1,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.SwitchProtocol(s, args[0])
		})
}

// NewLaneCommand creates the lane command.
func NewLaneCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "lane", "Buy another processing lane", 0,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.AddLane(s)
		})
}

// NewPerkCommand creates the perk command.
func NewPerkCommand(rootOpts *RootOptions) *cobra.Command {
	return actionCommand(rootOpts, "perk <perk-id>", "Buy one level of a permanent perk", 1,
		func(e *engine.Engine, s *state.State, args []string) engine.Outcome {
			return e.PurchasePerk(s, args[0])
		})
}
