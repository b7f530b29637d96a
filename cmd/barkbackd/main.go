package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewCommand builds the barkbackd root command and its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "barkbackd",
		Short:        "barkbackd drives a shock/vibration/sound collar off ambient bark levels",
		Long: `barkbackd listens on an I2S microphone, classifies ambient sound level
against a configurable decibel threshold, and dispatches RF collar commands
through an idle/alert/action/dispatch phase machine.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env configuration file")

	cmd.AddCommand(
		NewRunCommand(),
		NewSimulateCommand(),
		NewVersionCommand(),
	)

	return cmd
}
