package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/core/cluster"
	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/forecast"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/infra/gtfs"
	"github.com/transitlab/busopt/infra/logger"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Partition stops into demand zones and fit hourly forecast models",
	RunE:  runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("cluster")

	store, err := gtfs.Open(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open transit db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	}()
	stops, err := store.Stops()
	if err != nil {
		return err
	}

	assignment, err := cluster.Assign(stops, cfg.Cluster.K, cfg.Cluster.Seed)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Data.ClustersPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(cfg.Data.ClustersPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", cfg.Data.ClustersPath, err)
	}
	if err := cluster.WriteCSV(f, stops, assignment); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logg.Infof("wrote %d stop assignments to %s", len(assignment), cfg.Data.ClustersPath)

	// Fit per-zone hourly arrival rates from the generated demand so the
	// dynamic policy has a forecast to run against.
	pf, err := os.Open(cfg.Data.PassengerPath)
	if err != nil {
		return fmt.Errorf("open passenger demand: %w", err)
	}
	requests, err := demand.LoadRequests(pf, 0, logg)
	cerr := pf.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return cerr
	}

	stopOrder := lo.Map(stops, func(s model.Stop, _ int) string { return s.ID })
	clusters := demand.NewClusterMap(stopOrder, assignment)
	m := forecast.Fit(requests, clusters)
	if err := m.Save(cfg.Data.ModelsDir); err != nil {
		return fmt.Errorf("save forecast models: %w", err)
	}
	logg.Infof("fitted forecast models for %d zones into %s", len(clusters.Zones()), cfg.Data.ModelsDir)
	return nil
}
