package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for nmpatch.
// Running it without a subcommand patches with the default options.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nmpatch",
		Short: "Hide TypeScript problems coming from node_modules",
		Long: `nmpatch prepends a "// @ts-nocheck" marker to the TypeScript sources of
your dependencies so the editor's problems view only shows issues from
your own code.

Files that already start with the marker are left alone, so it is safe to
run nmpatch after every install. Without a subcommand it patches
./node_modules/ with the default settings.

Configuration is loaded from .nmpatch.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runPatch,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	addRunFlags(cmd)

	cmd.AddCommand(NewPatchCommand())
	cmd.AddCommand(NewCheckCommand())

	return cmd
}
