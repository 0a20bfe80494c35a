package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/clock"
	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/store"
)

// session bundles what a command needs to load, change and save a run.
type session struct {
	opts   *RootOptions
	out    *OutputFormatter
	logger *slog.Logger
	eng    *engine.Engine
	st     *store.Store
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := opts.LogLevel
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadCatalog reads the CUE catalog in dir, or the built-in one if dir is empty.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.Load(dir)
}

// openSession loads the catalog and opens the store. Failures are reported
// through the formatter and returned as ExitErrors.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}
	logger.Debug("catalog loaded", "catalog", cat.String(), "dir", opts.Catalog)

	st, err := store.Open(opts.DB, store.WithIDGenerator(opts.IDs))
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	logger.Debug("database ready", "path", opts.DB, "slot", opts.Slot)

	return &session{
		opts:   opts,
		out:    out,
		logger: logger,
		eng:    engine.New(cat, engine.WithLogger(logger)),
		st:     st,
	}, nil
}

func (s *session) Close() {
	if err := s.st.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

func (s *session) now() time.Time {
	if s.opts.Clock != nil {
		return s.opts.Clock.Now()
	}
	return clock.RealClock{}.Now()
}

// load returns the newest run in the slot.
func (s *session) load(ctx context.Context) (*state.State, store.Snapshot, error) {
	run, snap, err := s.st.LatestSnapshot(ctx, s.opts.Slot)
	switch {
	case err == nil:
		return run, snap, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, snap, s.out.Fail(ExitCommandError, ErrCodeNoRun,
			"no run in slot "+s.opts.Slot+"; start one with 'backpressure new'", nil)
	case errors.Is(err, state.ErrVersionMismatch):
		return nil, snap, s.out.Fail(ExitCommandError, ErrCodeVersion, "save was written by another version", err)
	default:
		return nil, snap, s.out.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}
}

// save appends run to the slot.
func (s *session) save(ctx context.Context, run *state.State) (store.Snapshot, error) {
	snap, err := s.st.SaveSnapshot(ctx, s.opts.Slot, run)
	if err != nil {
		return snap, s.out.Fail(ExitCommandError, ErrCodeSave, "failed to save run", err)
	}
	s.logger.Debug("run saved", "slot", snap.Slot, "seq", snap.Seq, "step", snap.Step)
	return snap, nil
}

// apply loads the run, applies an action and saves the result. A rejected
// action leaves the slot untouched.
func (s *session) apply(ctx context.Context, action func(*state.State) engine.Outcome) (*state.State, store.Snapshot, error) {
	run, _, err := s.load(ctx)
	if err != nil {
		return nil, store.Snapshot{}, err
	}
	out := action(run)
	if !out.OK() {
		return nil, store.Snapshot{}, s.out.Reject(out.Reason, nil)
	}
	snap, err := s.save(ctx, out.State)
	if err != nil {
		return nil, snap, err
	}
	return out.State, snap, nil
}
