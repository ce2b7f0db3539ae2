package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flowtrack/internal/config"
	"github.com/example/flowtrack/internal/db"
	"github.com/example/flowtrack/internal/version"
	"github.com/example/flowtrack/internal/wire"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the flowtrack environment",
		Long: `Environment health check for flowtrack.

Validates:
- Data directory and database file
- Database schema and queue health
- Config file syntax and remote reachability settings
- Timezone configuration

Examples:
  flowtrack doctor          # Run full health check
  flowtrack doctor --quiet  # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{
				checkDataDir(),
				checkDatabase(),
				checkConfig(),
				checkQueueHealth(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check          Status")
				fmt.Println("─────────────────────")
				for _, r := range results {
					fmt.Printf("%-14s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						fmt.Printf("%s:\n%s\n", r.Name, r.Details)
					}
				}

				fmt.Println(version.String())
			}

			if hasErrors {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Exit code only")

	return cmd
}

func checkDataDir() CheckResult {
	path, err := db.GetDBPath()
	if err != nil {
		return CheckResult{Name: "Data dir", Status: "✗", Details: "  " + err.Error()}
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return CheckResult{Name: "Data dir", Status: "⚠", Details: fmt.Sprintf("  %s does not exist yet (created on first write)", dir)}
	}
	if err != nil {
		return CheckResult{Name: "Data dir", Status: "✗", Details: "  " + err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Name: "Data dir", Status: "✗", Details: fmt.Sprintf("  %s is not a directory", dir)}
	}
	return CheckResult{Name: "Data dir", Status: "✓"}
}

func checkDatabase() CheckResult {
	database, err := db.GetDB()
	if err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  " + err.Error()}
	}
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM flows").Scan(&n); err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  schema check failed: " + err.Error()}
	}
	return CheckResult{Name: "Database", Status: "✓"}
}

func checkConfig() CheckResult {
	cfg, err := config.LoadConfig()
	if err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  " + err.Error()}
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return CheckResult{Name: "Config", Status: "✗", Details: fmt.Sprintf("  unknown timezone %q", cfg.Timezone)}
		}
	}
	if cfg.RemoteURL == "" {
		return CheckResult{Name: "Config", Status: "⚠", Details: "  no remote_url set; mutations queue locally"}
	}
	return CheckResult{Name: "Config", Status: "✓"}
}

func checkQueueHealth() CheckResult {
	summary, err := wire.SyncService().Summary(context.Background())
	if err != nil {
		return CheckResult{Name: "Queue", Status: "✗", Details: "  " + err.Error()}
	}
	if summary.Failed > 0 {
		return CheckResult{
			Name:    "Queue",
			Status:  "⚠",
			Details: fmt.Sprintf("  %d failed mutation(s); inspect with: flowtrack sync failed", summary.Failed),
		}
	}
	return CheckResult{Name: "Queue", Status: "✓"}
}
