package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/harrison/nmpatch/internal/display"
	"github.com/harrison/nmpatch/internal/patcher"
	"github.com/spf13/cobra"
)

// NewPatchCommand creates the patch command
func NewPatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patch [path]",
		Short: "Prepend the type-check marker to dependency sources",
		Long: `Prepend the type-check marker to every matching file that does not
already start with it.

Examples:
  # Patch ./node_modules/ (same as running nmpatch without a subcommand)
  nmpatch patch

  # Patch another dependency directory
  nmpatch patch vendor/js

  # Glob mode with exclusions
  nmpatch patch --mode glob "node_modules/**/*.{ts,mts}" --ignore "**/skip/**"

  # Use the alternative marker and four workers
  nmpatch patch --marker "// @ts-no-check" --workers 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPatch,
	}
}

// runPatch implements the patch command and the root command's default action
func runPatch(cmd *cobra.Command, args []string) error {
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

	ctx := patcher.WithRunID(cmd.Context(), runID)
	result, err := patcher.Run(ctx, cfg, log)
	if err != nil {
		return err
	}

	if result.Patched > 0 {
		display.RefreshWarning(result.Patched, relativeToCwd(result.Files)).Display(cmd.ErrOrStderr())
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) could not be patched:\n", len(result.Failed))
		for _, fe := range result.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", fe.Error())
		}
	}

	return nil
}
