package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/infra/logger"
	"github.com/transitlab/busopt/infra/report"
)

var (
	runsPolicy string
	runsSince  time.Duration
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded simulation runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsPolicy, "policy", "", "filter by policy (static or dynamic)")
	runsCmd.Flags().DurationVar(&runsSince, "since", 30*24*time.Hour, "only list runs newer than this")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("runs")

	store, err := report.NewSQLiteStore(cfg.Data.RunsDBPath)
	if err != nil {
		return fmt.Errorf("open runs db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("runs db close: %v", err)
		}
	}()

	results, err := store.Query(runsPolicy, time.Now().Add(-runsSince))
	if err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %s  served=%d failed=%d wait=%.1fmin cost=%.0f\n",
			r.Timestamp.Format(time.RFC3339), r.Policy, r.RunID,
			r.Results.PassengersServed, r.Results.PassengersFailed,
			r.Results.AverageWaitMinutes, r.Results.TotalCost); err != nil {
			return err
		}
	}
	return nil
}
