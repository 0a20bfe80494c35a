package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/store"
)

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a fresh run in the slot",
		Long: `Start a fresh run in the current slot.

Refuses to replace an existing run unless --force is given. Older saves
stay in the slot's history either way.

Example:
  backpressure new
  backpressure new --slot speedrun --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(rootOpts, force, cmd)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing run")

	return cmd
}

func runNew(opts *RootOptions, force bool, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := cmd.Context()

	_, _, err = sess.st.LatestSnapshot(ctx, opts.Slot)
	switch {
	case err == nil && !force:
		return sess.out.Fail(ExitCommandError, ErrCodeSlotExists,
			"slot "+opts.Slot+" already has a run; use --force to replace it", nil)
	case err != nil && !errors.Is(err, store.ErrNotFound) && !force:
		return sess.out.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	run := sess.eng.NewRun(state.Meta{Perks: map[string]int{}})
	run.LastAdvance = sess.now().UnixMilli()

	snap, err := sess.save(ctx, run)
	if err != nil {
		return err
	}
	return sess.out.Success(savedView("new run", "", snap))
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the current run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			run, snap, err := sess.load(cmd.Context())
			if err != nil {
				return err
			}
			return sess.out.Success(newStatusView(sess.eng, run, snap))
		},
	}
}

// AdvanceView reports an explicit advance.
type AdvanceView struct {
	Steps     int      `json:"steps"`
	Seconds   float64  `json:"seconds"`
	Output    float64  `json:"output"`
	Credits   float64  `json:"credits"`
	Research  float64  `json:"research"`
	Completed []string `json:"completed"`
	Expired   []string `json:"expired"`
	Ready     bool     `json:"ready"`
	Step      int64    `json:"step"`
	Seq       int64    `json:"seq"`
}

// Text renders the advance summary.
func (v AdvanceView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Advanced %s step(s) of %ss: +%s output, +%s credits, +%s research\n",
		count(v.Steps), num(v.Seconds), num(v.Output), num(v.Credits), num(v.Research))
	for _, id := range v.Completed {
		fmt.Fprintf(&b, "Completed %s\n", id)
	}
	for _, id := range v.Expired {
		fmt.Fprintf(&b, "Expired %s\n", id)
	}
	if v.Ready {
		b.WriteString("Prestige is now available.\n")
	}
	return b.String()
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	var seconds float64
	var steps int

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the run by explicit steps",
		Long: `Advance the run by a number of fixed-size steps.

Explicit advances do not move the wall-clock stamp used by reconcile.

Example:
  backpressure advance --steps 60
  backpressure advance --steps 10 --seconds 0.5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(rootOpts, steps, seconds, cmd)
		},
	}

	cmd.Flags().Float64Var(&seconds, "seconds", 1, "seconds per step")
	cmd.Flags().IntVar(&steps, "steps", 1, "number of steps")

	return cmd
}

func runAdvance(opts *RootOptions, steps int, seconds float64, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := cmd.Context()

	if steps < 1 || seconds <= 0 {
		return sess.out.Fail(ExitCommandError, ErrCodeInvalidArgument,
			"--steps must be at least 1 and --seconds must be positive", nil)
	}

	run, _, err := sess.load(ctx)
	if err != nil {
		return err
	}

	view := AdvanceView{Steps: steps, Seconds: seconds, Completed: []string{}, Expired: []string{}}
	before := run.Stats
	for i := 0; i < steps; i++ {
		var report engine.StepReport
		run, report = sess.eng.AdvanceReport(run, seconds)
		if report.Completed != "" {
			view.Completed = append(view.Completed, report.Completed)
		}
		if report.Expired != "" {
			view.Expired = append(view.Expired, report.Expired)
		}
		view.Ready = view.Ready || report.Ready
	}
	view.Output = run.Stats.LifetimeOutput - before.LifetimeOutput
	view.Credits = run.Stats.LifetimeCredits - before.LifetimeCredits
	view.Research = run.Stats.LifetimeResearch - before.LifetimeResearch

	snap, err := sess.save(ctx, run)
	if err != nil {
		return err
	}
	view.Step = snap.Step
	view.Seq = snap.Seq
	return sess.out.Success(view)
}

// ReconcileView reports a wall-clock catch-up.
type ReconcileView struct {
	engine.Summary
	Step int64 `json:"step"`
	Seq  int64 `json:"seq"`
}

// Text renders the reconcile summary.
func (v ReconcileView) Text() string {
	if v.Chunks == 0 {
		return "Nothing to replay.\n"
	}
	return fmt.Sprintf("Replayed %ss in %d chunk(s): +%s output, +%s credits, +%s research\n",
		num(v.Seconds), v.Chunks, num(v.Output), num(v.Credits), num(v.Research))
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Catch the run up to wall-clock time",
		Long: `Replay the time elapsed since the run was last stamped.

Elapsed time is capped by the catalog's replay limit and applied in
fixed-size chunks.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctx := cmd.Context()

			run, _, err := sess.load(ctx)
			if err != nil {
				return err
			}
			next, summary := sess.eng.Reconcile(run, sess.now())
			sess.logger.Debug("reconciled", "seconds", summary.Seconds, "chunks", summary.Chunks)

			snap, err := sess.save(ctx, next)
			if err != nil {
				return err
			}
			return sess.out.Success(ReconcileView{Summary: summary, Step: snap.Step, Seq: snap.Seq})
		},
	}
}
