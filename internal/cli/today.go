package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/core/status"
	"github.com/example/flowtrack/internal/wire"
)

// TodayCmd returns the today command
func TodayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the day view",
		Long: `Show every flow's state for a date (default today): whether the
recurrence rule makes it due, and the status of its record if any.

Examples:
  flowtrack today
  flowtrack today --date 2024-03-10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			slots, err := wire.EntryService().DayView(ctx, day, time.Now())
			if err != nil {
				return fmt.Errorf("failed to build day view: %w", err)
			}

			if len(slots) == 0 {
				fmt.Println("No flows found.")
				return nil
			}

			fmt.Printf("%s\n\n", day.Format("Mon 2006-01-02"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			for _, slot := range slots {
				due := " "
				if slot.Due {
					due = "●"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					statusGlyph(slot.Status),
					due,
					slot.Flow.Title,
					slot.Flow.ID,
				)
			}
			w.Flush()

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to show (YYYY-MM-DD, default today)")

	return cmd
}

// statusGlyph renders a status as a colored glyph.
func statusGlyph(s status.Status) string {
	switch s {
	case status.Done:
		return color.New(color.FgHiGreen).Sprint("✓")
	case status.Missed:
		return color.New(color.FgRed).Sprint("✗")
	case status.Partial:
		return color.New(color.FgYellow).Sprint("~")
	case status.Skip:
		return color.New(color.FgHiBlack).Sprint("s")
	case status.Available:
		return color.New(color.FgCyan).Sprint("·")
	}
	return " "
}
