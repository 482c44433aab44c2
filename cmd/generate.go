package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/core/genpax"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/infra/gtfs"
	"github.com/transitlab/busopt/infra/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic passenger demand CSV",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "override the configured request count")
	rootCmd.AddCommand(generateCmd)
}

var generateCount int

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if generateCount > 0 {
		cfg.Generator.Count = generateCount
	}
	logg := logger.New("generate")

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
	stopIDs := lo.Map(stops, func(s model.Stop, _ int) string { return s.ID })

	requests, err := genpax.Generate(stopIDs, cfg.Generator)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Data.PassengerPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(cfg.Data.PassengerPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", cfg.Data.PassengerPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logg.Errorf("close %s: %v", cfg.Data.PassengerPath, err)
		}
	}()
	if err := genpax.WriteCSV(f, requests); err != nil {
		return err
	}
	logg.Infof("wrote %d requests to %s", len(requests), cfg.Data.PassengerPath)
	return nil
}
