package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/store"
)

// PrestigeView reports a prestige preview or a completed reset.
type PrestigeView struct {
	Ready          bool    `json:"ready"`
	Reward         float64 `json:"reward"`
	LifetimeOutput float64 `json:"lifetime_output"`
	Threshold      float64 `json:"threshold"`
	Confirmed      bool    `json:"confirmed"`
	Resets         int     `json:"resets"`
	Balance        float64 `json:"balance"`
}

// Text renders the preview or the reset result.
func (v PrestigeView) Text() string {
	if v.Confirmed {
		return fmt.Sprintf("Prestiged for %s. Resets %d, balance %s.\n", num(v.Reward), v.Resets, num(v.Balance))
	}
	if !v.Ready {
		return fmt.Sprintf("Not ready: lifetime output %s of %s. Reward would be %s.\n",
			whole(v.LifetimeOutput), whole(v.Threshold), num(v.Reward))
	}
	return fmt.Sprintf("Ready. Reward %s. Run 'backpressure prestige --confirm' to reset.\n", num(v.Reward))
}

// NewPrestigeCommand creates the prestige command.
func NewPrestigeCommand(rootOpts *RootOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "prestige",
		Short: "Preview or perform a prestige reset",
		Long: `Show the prestige reward, or reset the run with --confirm.

A reset keeps only permanent progress: the reset count, the prestige
currency and purchased perks. Everything else returns to run-start values.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrestige(rootOpts, confirm, cmd)
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "perform the reset")

	return cmd
}

func runPrestige(opts *RootOptions, confirm bool, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := cmd.Context()

	run, _, err := sess.load(ctx)
	if err != nil {
		return err
	}

	view := PrestigeView{
		Ready:          sess.eng.Ready(run),
		Reward:         sess.eng.RewardPreview(run),
		LifetimeOutput: run.Stats.LifetimeOutput,
		Threshold:      sess.eng.Catalog().Tuning().PrestigeThreshold,
		Resets:         run.Meta.Resets,
		Balance:        run.Meta.Balance(),
	}
	if !confirm {
		return sess.out.Success(view)
	}

	out := sess.eng.Prestige(run)
	if !out.OK() {
		return sess.out.Reject(out.Reason, view)
	}
	if _, err := sess.save(ctx, out.State); err != nil {
		return err
	}
	_, err = sess.st.RecordPrestige(ctx, opts.Slot, store.Prestige{
		Resets:         out.State.Meta.Resets,
		Reward:         view.Reward,
		LifetimeOutput: run.Stats.LifetimeOutput,
		Completed:      run.Stats.Completed,
	})
	if err != nil {
		return sess.out.Fail(ExitCommandError, ErrCodeSave, "failed to record prestige", err)
	}

	view.Confirmed = true
	view.Resets = out.State.Meta.Resets
	view.Balance = out.State.Meta.Balance()
	return sess.out.Success(view)
}

// HistoryView lists a slot's saves and resets.
type HistoryView struct {
	Slot      string           `json:"slot"`
	Slots     []string         `json:"slots"`
	Snapshots []store.Snapshot `json:"snapshots"`
	Prestiges []store.Prestige `json:"prestiges"`
	Pruned    int64            `json:"pruned,omitempty"`
}

// Text renders the history tables.
func (v HistoryView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Slots: %s\n", strings.Join(v.Slots, ", "))
	if v.Pruned > 0 {
		fmt.Fprintf(&b, "Pruned %d save(s)\n", v.Pruned)
	}
	fmt.Fprintf(&b, "Saves in %s:\n", v.Slot)
	for _, s := range v.Snapshots {
		fmt.Fprintf(&b, "  #%-4d step %-8s resets %-3d %s\n", s.Seq, count(s.Step), s.Resets, shortHash(s.Fingerprint))
	}
	fmt.Fprintf(&b, "Prestiges in %s:\n", v.Slot)
	for _, p := range v.Prestiges {
		fmt.Fprintf(&b, "  #%-4d reset %-3d reward %-8s output %-10s completed %d\n",
			p.Seq, p.Resets, num(p.Reward), whole(p.LifetimeOutput), p.Completed)
	}
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saves and prestige history",
		Long: `List every slot, then the current slot's saves and prestige resets.

With --prune N, only the newest N saves of the slot are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, keep, cmd)
		},
	}

	cmd.Flags().IntVar(&keep, "prune", 0, "keep only the newest N saves (0 = keep all)")

	return cmd
}

func runHistory(opts *RootOptions, keep int, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := cmd.Context()

	view := HistoryView{Slot: opts.Slot}
	if keep > 0 {
		if view.Pruned, err = sess.st.Prune(ctx, opts.Slot, keep); err != nil {
			return sess.out.Fail(ExitCommandError, ErrCodeSave, "failed to prune saves", err)
		}
	}
	if view.Slots, err = sess.st.ListSlots(ctx); err != nil {
		return sess.out.Fail(ExitCommandError, ErrCodeStore, "failed to list slots", err)
	}
	if view.Snapshots, err = sess.st.ListSnapshots(ctx, opts.Slot); err != nil {
		return sess.out.Fail(ExitCommandError, ErrCodeStore, "failed to list saves", err)
	}
	if view.Prestiges, err = sess.st.ListPrestiges(ctx, opts.Slot); err != nil {
		return sess.out.Fail(ExitCommandError, ErrCodeStore, "failed to list prestiges", err)
	}
	return sess.out.Success(view)
}
