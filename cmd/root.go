// Package cmd wires the busopt pipeline stages into a CLI: GTFS
// ingestion, demand generation, zone clustering, policy simulation,
// and route lookup.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "busopt",
	Short: "Transit dispatch policy evaluator",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI. Commands observe interrupts through their
// cobra context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
