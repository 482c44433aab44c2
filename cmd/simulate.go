package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/forecast"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/core/simulation"
	"github.com/transitlab/busopt/infra/gtfs"
	"github.com/transitlab/busopt/infra/logger"
	"github.com/transitlab/busopt/infra/report"
)

var simulatePolicy string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay the demand under a dispatch policy and report KPIs",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePolicy, "policy", model.PolicyDynamic, "dispatch policy: static or dynamic")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulatePolicy != model.PolicyStatic && simulatePolicy != model.PolicyDynamic {
		return fmt.Errorf("unknown policy %q", simulatePolicy)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("simulate")

	store, err := gtfs.Open(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open transit db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	}()

	pf, err := os.Open(cfg.Data.PassengerPath)
	if err != nil {
		return fmt.Errorf("open passenger demand: %w", err)
	}
	requests, err := demand.LoadRequests(pf, cfg.Simulation.SampleSize, logg)
	cerr := pf.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return cerr
	}
	logg.Infof("replaying %d requests under the %s policy", len(requests), simulatePolicy)

	var summary model.Summary
	switch simulatePolicy {
	case model.PolicyStatic:
		rows, err := store.StopArrivals()
		if err != nil {
			return err
		}
		schedule := demand.BuildScheduleIndex(rows)
		summary = simulation.NewStatic(cfg.Simulation, requests, schedule, logg).Run()
	case model.PolicyDynamic:
		cf, err := os.Open(cfg.Data.ClustersPath)
		if err != nil {
			return fmt.Errorf("open cluster map: %w", err)
		}
		clusters, err := demand.LoadClusterMap(cf)
		cerr := cf.Close()
		if err != nil {
			return err
		}
		if cerr != nil {
			return cerr
		}
		fc, err := forecast.Load(cfg.Data.ModelsDir, clusters.Zones())
		if err != nil {
			return fmt.Errorf("load forecast models: %w", err)
		}
		stops, err := store.Stops()
		if err != nil {
			return err
		}
		coords := demand.NewCoordinates(stops)
		summary = simulation.NewDynamic(cfg.Simulation, requests, clusters, coords, fc, logg).Run()
	}

	result := report.Build(simulatePolicy, len(requests), summary)
	reporter := report.FileReporter{Dir: cfg.Data.ResultsDir}
	path, err := reporter.Save(result)
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	logg.Infof("results written to %s", path)

	runs, err := report.NewSQLiteStore(cfg.Data.RunsDBPath)
	if err != nil {
		return fmt.Errorf("open runs db: %w", err)
	}
	defer func() {
		if err := runs.Close(); err != nil {
			logg.Errorf("runs db close: %v", err)
		}
	}()
	if err := runs.Add(result); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return report.WriteJSON(cmd.OutOrStdout(), result)
}
