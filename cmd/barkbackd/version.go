package main

import (
	"github.com/spf13/cobra"

	"barkback/internal/version"
)

// NewVersionCommand prints the build version and commit, grounded on the
// batt CLI's `version` subcommand.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}
