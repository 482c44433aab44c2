package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/infra/gtfs"
	"github.com/transitlab/busopt/infra/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a GTFS zip into the transit database",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("ingest")
	if err := os.MkdirAll(filepath.Dir(cfg.Data.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	store, err := gtfs.Ingest(cfg.Data.GTFSPath, cfg.Data.DBPath, logg)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", cfg.Data.GTFSPath, err)
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
	logg.Infof("ingested %d stops into %s", len(stops), cfg.Data.DBPath)
	return nil
}
