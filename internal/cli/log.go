package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/wire"
)

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	var (
		date     string
		count    int
		goal     int
		duration int
	)

	cmd := &cobra.Command{
		Use:   "log [flow-id] [symbol]",
		Short: "Log a completion record",
		Long: `Log a completion record for a flow on a date (default today).

Symbols: + done, - missed, ~ partial, s skip. Logging the same day
again overwrites the previous record. Logging on a day the flow is
not due is a valid manual override.

Examples:
  flowtrack log FLOW-ID +
  flowtrack log FLOW-ID ~ --date 2024-03-10
  flowtrack log FLOW-ID + --count 3 --goal 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			entry, err := wire.EntryService().LogEntry(ctx, primary.LogEntryRequest{
				FlowID:      args[0],
				Date:        day,
				Symbol:      args[1],
				Count:       count,
				Goal:        goal,
				DurationMin: duration,
			})
			if err != nil {
				return fmt.Errorf("failed to log entry: %w", err)
			}

			fmt.Printf("✓ Logged %s for %s on %s\n", entry.Symbol, entry.FlowID, entry.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to log (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&count, "count", 0, "Completed count")
	cmd.Flags().IntVar(&goal, "goal", 0, "Goal count")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")

	return cmd
}

// ClearCmd returns the clear command
func ClearCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "clear [flow-id]",
		Short: "Clear a completion record",
		Long:  `Remove the record for a flow on a date (default today).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			if err := wire.EntryService().ClearEntry(ctx, args[0], day); err != nil {
				return fmt.Errorf("failed to clear entry: %w", err)
			}

			fmt.Printf("✓ Cleared %s on %s\n", args[0], day.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to clear (YYYY-MM-DD, default today)")

	return cmd
}

// resolveDate parses the --date flag, defaulting to today.
func resolveDate(date string) (time.Time, error) {
	if date == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}
