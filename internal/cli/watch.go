package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/clock"
	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/store"
)

// ScreenFactory creates the terminal screen used by watch.
type ScreenFactory func() (tcell.Screen, error)

func defaultScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

const watchHelp = "[1-9] activate  [x] abandon  [r] refresh  [l] lane  [p] prestige  [q] quit"

var (
	styleText   = tcell.StyleDefault
	styleHeader = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleNotice = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// dashboard renders a live run and applies key commands to it.
//
// Thread-safety: tick, handleKey and draw may be called from different
// goroutines; mu serializes every engine call and state swap.
type dashboard struct {
	mu        sync.Mutex
	screen    tcell.Screen
	eng       *engine.Engine
	clock     clock.Clock
	slot      string
	run       *state.State
	notice    string
	prestiges []store.Prestige
}

func newDashboard(screen tcell.Screen, eng *engine.Engine, clk clock.Clock, slot string, run *state.State) *dashboard {
	return &dashboard{screen: screen, eng: eng, clock: clk, slot: slot, run: run}
}

// tick catches the run up to now.
func (d *dashboard) tick(now time.Time) engine.Summary {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, summary := d.eng.Reconcile(d.run, now)
	d.run = next
	return summary
}

// handleKey applies a key command. Returns false when the user quits.
func (d *dashboard) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	r := ev.Rune()
	switch {
	case r == 'q':
		return false
	case r >= '1' && r <= '9':
		i := int(r - '1')
		if i >= len(d.run.Board.Objectives) {
			d.notice = "no objective in slot " + string(r)
			return true
		}
		id := d.run.Board.Objectives[i].ID
		d.applyLocked("activated "+id, d.eng.Activate(d.run, id))
	case r == 'x':
		d.applyLocked("abandoned", d.eng.Abandon(d.run))
	case r == 'r':
		d.run = d.eng.RefreshBoard(d.run)
		d.notice = "board refreshed"
	case r == 'l':
		d.applyLocked("lane added", d.eng.AddLane(d.run))
	case r == 'p':
		reward := d.eng.RewardPreview(d.run)
		prev := d.run
		if d.applyLocked(fmt.Sprintf("prestiged for %s", num(reward)), d.eng.Prestige(d.run)) {
			d.prestiges = append(d.prestiges, store.Prestige{
				Resets:         d.run.Meta.Resets,
				Reward:         reward,
				LifetimeOutput: prev.Stats.LifetimeOutput,
				Completed:      prev.Stats.Completed,
			})
		}
	}
	return true
}

// applyLocked swaps in an accepted outcome or records the rejection.
func (d *dashboard) applyLocked(notice string, out engine.Outcome) bool {
	if !out.OK() {
		d.notice = out.Reason.Message()
		return false
	}
	d.run = out.State
	d.notice = notice
	return true
}

// snapshot returns the current run and pending prestige records.
func (d *dashboard) snapshot() (*state.State, []store.Prestige) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.run, append([]store.Prestige(nil), d.prestiges...)
}

func (d *dashboard) draw() {
	d.mu.Lock()
	lines := strings.Split(strings.TrimRight(newStatusView(d.eng, d.run, store.Snapshot{Slot: d.slot}).Text(), "\n"), "\n")
	notice := d.notice
	d.mu.Unlock()

	d.screen.Clear()
	width, height := d.screen.Size()
	y := 0
	for i, line := range lines {
		style := styleText
		if i == 0 {
			style = styleHeader
		}
		drawText(d.screen, 0, y, width, style, line)
		y++
	}
	if notice != "" && y+1 < height {
		y++
		drawText(d.screen, 0, y, width, styleNotice, notice)
	}
	drawText(d.screen, 0, height-1, width, styleHelp, watchHelp)
	d.screen.Show()
}

// drawText writes text at (x, y), clipped to width.
func drawText(screen tcell.Screen, x, y, width int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// loop redraws on every tick and key until ctx ends or the user quits.
func (d *dashboard) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan struct{})
	defer close(quit)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	d.draw()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !d.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				d.screen.Sync()
			}
			d.draw()
		case <-ticker.C:
			d.tick(d.clock.Now())
			d.draw()
		}
	}
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard that advances with wall time",
		Long: `Open a terminal dashboard for the current run.

The run is reconciled against wall time on every tick (BACKPRESSURE_TICK,
default 1s) and saved when the dashboard exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	run, _, err := sess.load(parentCtx)
	if err != nil {
		return err
	}

	newScreen := opts.NewScreen
	if newScreen == nil {
		newScreen = defaultScreen
	}
	screen, err := newScreen()
	if err != nil {
		return sess.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to open terminal", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	interval := opts.Tick
	if interval <= 0 {
		interval = time.Second
	}

	d := newDashboard(screen, sess.eng, clk, opts.Slot, run)
	if summary := d.tick(clk.Now()); summary.Chunks > 0 {
		d.notice = fmt.Sprintf("replayed %ss while away", num(summary.Seconds))
	}

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			sess.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	d.loop(ctx, interval)
	screen.Fini()

	final, prestiges := d.snapshot()
	// Autosave runs even after ctx is cancelled.
	saveCtx := context.Background()
	snap, err := sess.save(saveCtx, final)
	if err != nil {
		return err
	}
	for _, p := range prestiges {
		if _, err := sess.st.RecordPrestige(saveCtx, opts.Slot, p); err != nil {
			return sess.out.Fail(ExitCommandError, ErrCodeSave, "failed to record prestige", err)
		}
	}
	return sess.out.Success(savedView("watch", "autosaved", snap))
}
