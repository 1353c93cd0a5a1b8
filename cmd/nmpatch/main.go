package main

import (
	"fmt"
	"os"

	"github.com/harrison/nmpatch/internal/cmd"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = ""

func main() {
	if Version != "" {
		cmd.Version = Version
	}
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
