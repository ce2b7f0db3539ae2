package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/core/recurrence"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/wire"
)

// FlowCmd returns the flow command
func FlowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage tracked flows",
		Long:  `Create and manage flows - the recurring habits flowtrack follows.`,
	}

	cmd.AddCommand(flowAddCmd())
	cmd.AddCommand(flowListCmd())
	cmd.AddCommand(flowShowCmd())
	cmd.AddCommand(flowEditCmd())
	cmd.AddCommand(flowArchiveCmd())

	return cmd
}

func flowAddCmd() *cobra.Command {
	var (
		every     bool
		weekdays  string
		monthdays string
		starting  string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new flow",
		Long: `Add a new flow with a recurrence rule.

Exactly one of --every, --weekdays, or --monthdays selects the rule.
Days a month does not reach (e.g. 31 in April) simply never come due.

Examples:
  flowtrack flow add "Morning run" --weekdays mon,wed,fri
  flowtrack flow add "Pay rent" --monthdays 1
  flowtrack flow add "Meditate" --every --starting 2024-02-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			rule, err := buildRule(every, weekdays, monthdays)
			if err != nil {
				return err
			}

			req := primary.CreateFlowRequest{Title: args[0], Rule: rule}
			if starting != "" {
				t, err := time.Parse("2006-01-02", starting)
				if err != nil {
					return fmt.Errorf("invalid --starting date %q, expected YYYY-MM-DD", starting)
				}
				req.ActivationDate = &t
			}

			flow, err := wire.FlowService().CreateFlow(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create flow: %w", err)
			}

			fmt.Printf("✓ Created flow %s: %s\n", flow.ID, flow.Title)
			return nil
		},
	}

	cmd.Flags().BoolVar(&every, "every", false, "Due every day")
	cmd.Flags().StringVar(&weekdays, "weekdays", "", "Due on weekdays (e.g. mon,wed,fri)")
	cmd.Flags().StringVar(&monthdays, "monthdays", "", "Due on days of month (e.g. 1,15)")
	cmd.Flags().StringVar(&starting, "starting", "", "First day the flow can be due (YYYY-MM-DD)")

	return cmd
}

func flowListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			flows, err := wire.FlowService().ListFlows(ctx, all)
			if err != nil {
				return fmt.Errorf("failed to list flows: %w", err)
			}

			if len(flows) == 0 {
				fmt.Println("No flows found.")
				fmt.Println()
				fmt.Println("Add your first flow:")
				fmt.Println(`  flowtrack flow add "Morning run" --every`)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tRULE\tARCHIVED")
			fmt.Fprintln(w, "--\t-----\t----\t--------")

			for _, f := range flows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n",
					f.ID,
					f.Title,
					describeRule(f.Rule),
					f.Archived,
				)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived flows")

	return cmd
}

func flowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [flow-id]",
		Short: "Show flow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			flow, err := wire.FlowService().GetFlow(ctx, args[0])
			if err != nil {
				return fmt.Errorf("flow not found: %w", err)
			}

			fmt.Printf("Flow: %s\n", flow.ID)
			fmt.Printf("Title: %s\n", flow.Title)
			fmt.Printf("Rule: %s\n", describeRule(flow.Rule))
			if flow.ActivationDate != nil {
				fmt.Printf("Active from: %s\n", flow.ActivationDate.Format("2006-01-02"))
			}
			fmt.Printf("Archived: %v\n", flow.Archived)
			fmt.Printf("Created: %s\n", flow.CreatedAt)

			return nil
		},
	}
}

func flowEditCmd() *cobra.Command {
	var (
		title     string
		every     bool
		weekdays  string
		monthdays string
	)

	cmd := &cobra.Command{
		Use:   "edit [flow-id]",
		Short: "Edit a flow's title or rule",
		Long: `Edit a flow. Changing the rule applies from now on;
entries already recorded keep their dates and statuses.

Examples:
  flowtrack flow edit FLOW-ID --title "Evening run"
  flowtrack flow edit FLOW-ID --weekdays tue,thu`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			req := primary.UpdateFlowRequest{FlowID: args[0], Title: title}
			if every || weekdays != "" || monthdays != "" {
				rule, err := buildRule(every, weekdays, monthdays)
				if err != nil {
					return err
				}
				req.Rule = &rule
			}

			flow, err := wire.FlowService().UpdateFlow(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to update flow: %w", err)
			}

			fmt.Printf("✓ Updated flow %s: %s\n", flow.ID, flow.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&every, "every", false, "Switch to due every day")
	cmd.Flags().StringVar(&weekdays, "weekdays", "", "Switch to weekday rule (e.g. mon,wed)")
	cmd.Flags().StringVar(&monthdays, "monthdays", "", "Switch to month-day rule (e.g. 1,15)")

	return cmd
}

func flowArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [flow-id]",
		Short: "Archive a flow",
		Long:  `Archive a flow. History stays queryable; the flow drops out of day views.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := wire.FlowService().ArchiveFlow(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to archive flow: %w", err)
			}

			fmt.Printf("✓ Flow %s archived\n", args[0])
			return nil
		},
	}
}

// buildRule maps the mutually exclusive rule flags onto a recurrence rule.
func buildRule(every bool, weekdays, monthdays string) (recurrence.Rule, error) {
	set := 0
	if every {
		set++
	}
	if weekdays != "" {
		set++
	}
	if monthdays != "" {
		set++
	}
	if set != 1 {
		return recurrence.Rule{}, fmt.Errorf("exactly one of --every, --weekdays, --monthdays is required")
	}

	switch {
	case every:
		return recurrence.Daily(), nil
	case weekdays != "":
		days, err := recurrence.ParseWeekdays(weekdays)
		if err != nil {
			return recurrence.Rule{}, err
		}
		return recurrence.OnWeekdays(days...), nil
	default:
		days, err := recurrence.ParseMonthDays(monthdays)
		if err != nil {
			return recurrence.Rule{}, err
		}
		return recurrence.OnMonthDays(days...), nil
	}
}

// describeRule renders a rule for listings.
func describeRule(rule recurrence.Rule) string {
	switch rule.Kind {
	case recurrence.KindEveryDay:
		return "every day"
	case recurrence.KindWeekDays:
		return "weekdays " + recurrence.EncodeWeekdays(rule.Weekdays)
	case recurrence.KindMonthDays:
		return "month days " + recurrence.EncodeMonthDays(rule.MonthDays)
	}
	return string(rule.Kind)
}
