package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version and commit are overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			bold := color.New(color.FgGreen, color.Bold)
			bold.Printf("taskengine")
			fmt.Printf(" %s (%s)\n", version, commit)
		},
	}
}
