package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "watchcat [flags] path... [-a args...]",
	Short: "Watch files and directories and launch a program when they change",
	Long: `Watch one or more files or directories and launch a program when they change.

Bursts of changes are collapsed with --launch-delay. With --wait-timeout the
program's own writes to the watched paths are ignored while watchcat waits for it.
Everything after -a/--args is passed to the program unchanged.

Subcommand names win over paths: to watch a path called "check", write it as
./check.`,
	Version:       version,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatch,
}

func main() {
	args, child, ok := splitChildArgs(os.Args[1:])
	if ok {
		childArgs, hasChildArgs = child, true
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
