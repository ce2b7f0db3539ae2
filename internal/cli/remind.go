package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/wire"
)

// RemindCmd returns the remind command
func RemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Manage notification schedules",
		Long:  `Create and manage reminder schedules, and see or fire their triggers.`,
	}

	cmd.AddCommand(remindAddCmd())
	cmd.AddCommand(remindListCmd())
	cmd.AddCommand(remindNextCmd())
	cmd.AddCommand(remindFireCmd())
	cmd.AddCommand(remindEnableCmd())
	cmd.AddCommand(remindDisableCmd())
	cmd.AddCommand(remindDeleteCmd())

	return cmd
}

func remindAddCmd() *cobra.Command {
	var (
		flowID     string
		kind       string
		frequency  string
		weekdays   string
		monthdays  string
		timezone   string
		quietStart string
		quietEnd   string
		startDate  string
		endDate    string
	)

	cmd := &cobra.Command{
		Use:   "add [time-of-day]",
		Short: "Add a notification schedule",
		Long: `Add a schedule firing at a time of day (HH:MM).

Quiet hours hold triggers instead of dropping them: a trigger that
falls inside the window surfaces at its next allowed instant. The
window may span midnight.

Examples:
  flowtrack remind add 09:00 --frequency daily
  flowtrack remind add 18:30 --frequency weekly --weekdays mon,thu --flow FLOW-ID
  flowtrack remind add 08:00 --frequency daily --quiet-start 22:00 --quiet-end 07:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if timezone == "" {
				timezone = wire.Config().Timezone
			}

			sched, err := wire.ScheduleService().CreateSchedule(ctx, primary.CreateScheduleRequest{
				FlowID:     flowID,
				Kind:       kind,
				TimeOfDay:  args[0],
				Frequency:  frequency,
				WeekDays:   weekdays,
				MonthDays:  monthdays,
				Timezone:   timezone,
				QuietStart: quietStart,
				QuietEnd:   quietEnd,
				StartDate:  startDate,
				EndDate:    endDate,
			})
			if err != nil {
				return fmt.Errorf("failed to create schedule: %w", err)
			}

			fmt.Printf("✓ Created schedule %s at %s (%s)\n", sched.ID, sched.TimeOfDay, sched.Frequency)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "Flow the reminder is about")
	cmd.Flags().StringVar(&kind, "kind", "", "Schedule kind: reminder (default) or summary")
	cmd.Flags().StringVar(&frequency, "frequency", "daily", "daily, weekly, or monthly")
	cmd.Flags().StringVar(&weekdays, "weekdays", "", "Weekdays for weekly frequency (e.g. mon,thu)")
	cmd.Flags().StringVar(&monthdays, "monthdays", "", "Days of month for monthly frequency (e.g. 1,15)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (default from config, then UTC)")
	cmd.Flags().StringVar(&quietStart, "quiet-start", "", "Quiet hours start (HH:MM)")
	cmd.Flags().StringVar(&quietEnd, "quiet-end", "", "Quiet hours end (HH:MM)")
	cmd.Flags().StringVar(&startDate, "start", "", "First active day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "Last active day (YYYY-MM-DD)")

	return cmd
}

func remindListCmd() *cobra.Command {
	var flowID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedules, err := wire.ScheduleService().ListSchedules(context.Background(), flowID)
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			if len(schedules) == 0 {
				fmt.Println("No schedules found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tFREQUENCY\tFLOW\tENABLED\tFIRED")
			for _, s := range schedules {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\n",
					s.ID,
					s.TimeOfDay,
					s.Frequency,
					s.FlowID,
					s.Enabled,
					s.TriggerCount,
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "Only schedules for this flow")

	return cmd
}

func remindNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next trigger per enabled schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			triggers, err := wire.ScheduleService().NextTriggers(context.Background(), time.Now())
			if err != nil {
				return fmt.Errorf("failed to compute triggers: %w", err)
			}

			if len(triggers) == 0 {
				fmt.Println("No upcoming triggers.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "AT\tSCHEDULE\tFLOW")
			for _, trig := range triggers {
				flow := trig.FlowTitle
				if flow == "" {
					flow = trig.FlowID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					trig.At.Format("2006-01-02 15:04 MST"),
					trig.ScheduleID,
					flow,
				)
			}
			w.Flush()
			return nil
		},
	}
}

func remindFireCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "fire",
		Short: "Deliver triggers that fell due recently",
		Long: `Deliver every trigger that fell due within the window ending now.
Intended for cron or a timer unit; delivery advances the schedule so
the same slot never fires twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fired, err := wire.ScheduleService().FireDue(context.Background(), time.Now(), window)
			if err != nil {
				return fmt.Errorf("failed to fire schedules: %w", err)
			}

			fmt.Printf("✓ Fired %d notification(s)\n", fired)
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", 15*time.Minute, "Lookback window for missed triggers")

	return cmd
}

func remindEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [schedule-id]",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ScheduleService().SetEnabled(context.Background(), args[0], true); err != nil {
				return fmt.Errorf("failed to enable schedule: %w", err)
			}
			fmt.Printf("✓ Schedule %s enabled\n", args[0])
			return nil
		},
	}
}

func remindDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [schedule-id]",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ScheduleService().SetEnabled(context.Background(), args[0], false); err != nil {
				return fmt.Errorf("failed to disable schedule: %w", err)
			}
			fmt.Printf("✓ Schedule %s disabled\n", args[0])
			return nil
		},
	}
}

func remindDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [schedule-id]",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ScheduleService().DeleteSchedule(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete schedule: %w", err)
			}
			fmt.Printf("✓ Schedule %s deleted\n", args[0])
			return nil
		},
	}
}
