package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/core/status"
	"github.com/example/flowtrack/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var showLog bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show overall state",
		Long: `Show a snapshot: today's flows, queue depth, and upcoming triggers.

Examples:
  flowtrack status
  flowtrack status --log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := time.Now()

			slots, err := wire.EntryService().DayView(ctx, now, now)
			if err != nil {
				return fmt.Errorf("failed to build day view: %w", err)
			}

			due, done := 0, 0
			for _, slot := range slots {
				if !slot.Due {
					continue
				}
				due++
				if slot.Status == status.Done {
					done++
				}
			}
			fmt.Printf("Today: %d/%d due flows done\n", done, due)

			summary, err := wire.SyncService().Summary(ctx)
			if err != nil {
				return fmt.Errorf("failed to read queue: %w", err)
			}
			fmt.Printf("Queue: %d pending, %d in flight, %d failed\n",
				summary.Pending, summary.InFlight, summary.Failed)

			triggers, err := wire.ScheduleService().NextTriggers(ctx, now)
			if err != nil {
				return fmt.Errorf("failed to compute triggers: %w", err)
			}
			if len(triggers) > 0 {
				fmt.Printf("Next reminder: %s\n", triggers[0].At.Format("2006-01-02 15:04 MST"))
			}

			if showLog {
				fmt.Println()
				return printActivityLog(ctx, 20)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLog, "log", false, "Include recent activity")

	return cmd
}

func printActivityLog(ctx context.Context, limit int) error {
	records, err := wire.ActivityLog().Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read activity log: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	for _, rec := range records {
		detail := rec.Detail
		if detail != "" {
			detail = " " + detail
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s%s\n",
			rec.At,
			rec.Action,
			rec.EntityType, rec.EntityID,
			detail,
		)
	}
	w.Flush()
	return nil
}
