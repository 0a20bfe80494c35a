package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/clock"
	"github.com/roach88/backpressure/internal/config"
	"github.com/roach88/backpressure/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	DB       string
	Slot     string
	Catalog  string // CUE directory; empty = built-in catalog
	Tick     time.Duration
	LogLevel slog.Level

	// Clock overrides wall time for reconcile and watch (for testing).
	// If nil, defaults to clock.RealClock.
	Clock clock.Clock

	// IDs overrides record ID generation (for testing).
	// If nil, the store uses UUIDv7.
	IDs store.IDGenerator

	// NewScreen overrides terminal creation for watch (for testing).
	NewScreen ScreenFactory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the backpressure CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backpressure",
		Short: "backpressure - an incremental pipeline simulator",
		Long: `A deterministic incremental-progression simulator.

Resources flow through processing lanes, accrue under a latency penalty,
satisfy rotating contracts, and periodically reset through prestige.
Runs are saved to a SQLite slot and advanced explicitly or by wall time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid environment", err)
			}
			applyConfig(cmd, opts, cfg)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (env BACKPRESSURE_DB)")
	cmd.PersistentFlags().StringVar(&opts.Slot, "slot", "", "save slot name (env BACKPRESSURE_SLOT)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory (env BACKPRESSURE_CATALOG)")

	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewAdvanceCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewBoardCommand(opts))
	cmd.AddCommand(NewActivateCommand(opts))
	cmd.AddCommand(NewAbandonCommand(opts))
	cmd.AddCommand(NewUpgradeCommand(opts))
	cmd.AddCommand(NewModuleCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewProtocolCommand(opts))
	cmd.AddCommand(NewLaneCommand(opts))
	cmd.AddCommand(NewPrestigeCommand(opts))
	cmd.AddCommand(NewPerkCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// applyConfig fills options whose flags were not set on the command line.
func applyConfig(cmd *cobra.Command, opts *RootOptions, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("db") {
		opts.DB = cfg.DB
	}
	if !flags.Changed("slot") {
		opts.Slot = cfg.Slot
	}
	if !flags.Changed("catalog") {
		opts.Catalog = cfg.Catalog
	}
	opts.Tick = cfg.Tick
	opts.LogLevel = cfg.Level()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
