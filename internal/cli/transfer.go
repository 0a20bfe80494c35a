package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/backpressure/internal/state"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current run as a versioned envelope",
		Long: `Write the current run as canonical envelope JSON.

The envelope is written as-is regardless of --format, to stdout or to
the file given by --out.`,
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
			data, err := state.Encode(run)
			if err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode run", err)
			}
			data = append(data, '\n')

			if path == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeInvalidArgument, "failed to write "+path, err)
			}
			sess.out.VerboseLog("Exported slot %s to %s", rootOpts.Slot, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "out", "o", "", "output file (default stdout)")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load an exported envelope into the slot",
		Long: `Decode an envelope written by export and save it as the slot's newest run.

Envelopes from another schema version are refused.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeInvalidArgument, "failed to read "+args[0], err)
			}
			run, err := state.Decode(data)
			if errors.Is(err, state.ErrVersionMismatch) {
				return sess.out.Fail(ExitCommandError, ErrCodeVersion, "envelope was written by another version", err)
			}
			if err != nil {
				return sess.out.Fail(ExitCommandError, ErrCodeInvalidArgument, "invalid envelope", err)
			}

			snap, err := sess.save(cmd.Context(), run)
			if err != nil {
				return err
			}
			return sess.out.Success(savedView("import", args[0], snap))
		},
	}
}
