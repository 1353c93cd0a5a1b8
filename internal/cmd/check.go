package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/harrison/nmpatch/internal/patcher"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "List files that still need the type-check marker",
		Long: `Resolve the target files and list those that do not start with the
marker yet. Nothing is written.

The command exits with a non-zero status when such files exist, which makes
it usable as a CI guard after dependency installs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log, closeLog, err := newRunLogger(cmd.OutOrStdout(), cfg, runID)
	if err != nil {
		return err
	}
	defer closeLog()

	result, err := patcher.Check(patcher.WithRunID(cmd.Context(), runID), cfg, log)
	if err != nil {
		return err
	}

	for _, path := range relativeToCwd(result.Files) {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}

	if len(result.Failed) > 0 {
		for _, fe := range result.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", fe.Error())
		}
	}

	if result.Patched > 0 {
		return fmt.Errorf("%d of %d file(s): %w", result.Patched, result.Scanned, patcher.ErrUnpatched)
	}
	return nil
}
