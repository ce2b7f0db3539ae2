package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/cli"
	"github.com/example/flowtrack/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "flowtrack",
		Short:   "flowtrack - offline-first habit tracking",
		Version: version.String(),
		Long: `flowtrack is a CLI tool for tracking recurring habits.
Writes land locally first and sync to a remote store through a durable,
idempotent mutation queue; reminders fire from local schedules.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.FlowCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.ClearCmd())
	rootCmd.AddCommand(cli.TodayCmd())
	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.RemindCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
