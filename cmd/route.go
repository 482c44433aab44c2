package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/transitlab/busopt/core/routegraph"
	"github.com/transitlab/busopt/infra/gtfs"
	"github.com/transitlab/busopt/infra/logger"
)

var (
	routeFrom string
	routeTo   string
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find the fastest stop-to-stop path in the transit graph",
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "origin stop id")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "destination stop id")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("route")

	store, err := gtfs.Open(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open transit db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	}()
	edges, err := store.Edges()
	if err != nil {
		return err
	}
	graph := routegraph.New(edges)

	path, seconds, err := graph.Find(routeFrom, routeTo)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%.0f s)\n", strings.Join(path, " -> "), seconds); err != nil {
		return err
	}
	return nil
}
