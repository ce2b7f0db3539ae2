package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/wire"
)

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage the offline mutation queue",
		Long:  `Flush, inspect, and run the queue that carries local writes to the remote store.`,
	}

	cmd.AddCommand(syncFlushCmd())
	cmd.AddCommand(syncStatusCmd())
	cmd.AddCommand(syncFailedCmd())
	cmd.AddCommand(syncOnlineCmd())
	cmd.AddCommand(syncRunCmd())

	return cmd
}

func syncFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Flush pending mutations now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := wire.SyncService().Flush(ctx); err != nil {
				return fmt.Errorf("flush failed: %w", err)
			}

			summary, err := wire.SyncService().Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Flush complete (%d pending, %d failed)\n", summary.Pending, summary.Failed)
			return nil
		},
	}
}

func syncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue depth by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := wire.SyncService().Summary(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read queue: %w", err)
			}

			fmt.Printf("Pending:   %d\n", summary.Pending)
			fmt.Printf("In flight: %d\n", summary.InFlight)
			fmt.Printf("Failed:    %d\n", summary.Failed)
			return nil
		},
	}
}

func syncFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List mutations that failed terminally",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed, err := wire.SyncService().Failed(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list failures: %w", err)
			}

			if len(failed) == 0 {
				fmt.Println("No failed mutations.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "QUEUE ID\tOP\tENTITY\tATTEMPTS\tERROR")
			for _, f := range failed {
				fmt.Fprintf(w, "%s\t%s\t%s/%s\t%d\t%s\n",
					f.QueueID,
					f.Operation,
					f.EntityType, f.EntityID,
					f.Attempts,
					f.LastError,
				)
			}
			w.Flush()
			return nil
		},
	}
}

func syncOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "Signal that connectivity is back",
		Long: `Signal restored connectivity. Wakes a running sync loop and drains
what it can immediately; anything still unreachable stays queued.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.SyncService().SignalOnline()
			if err := wire.SyncService().Flush(context.Background()); err != nil {
				return fmt.Errorf("flush failed: %w", err)
			}
			fmt.Println("✓ Online signal sent")
			return nil
		},
	}
}

func syncRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync loop in the foreground",
		Long: `Run the sync loop: periodic flushes plus an immediate flush on each
enqueue. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// Kick an initial pass so a backlog drains without waiting
			// for the first tick.
			wire.SyncService().SignalOnline()

			fmt.Println("Sync loop running. Ctrl-C to stop.")
			err := wire.SyncService().Run(ctx)
			if ctx.Err() != nil {
				fmt.Println("\nSync loop stopped.")
				return nil
			}
			return err
		},
	}
}
