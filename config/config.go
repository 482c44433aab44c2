// Package config loads the application configuration from a JSON or
// YAML file with optional environment overrides (K_ prefix, __ as the
// nesting separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/transitlab/busopt/core/genpax"
	"github.com/transitlab/busopt/core/simulation"
)

// DataConfig names every artifact the pipeline reads or writes.
type DataConfig struct {
	GTFSPath      string `json:"gtfs_path"`
	DBPath        string `json:"db_path"`
	PassengerPath string `json:"passenger_path"`
	ClustersPath  string `json:"clusters_path"`
	ModelsDir     string `json:"models_dir"`
	ResultsDir    string `json:"results_dir"`
	RunsDBPath    string `json:"runs_db_path"`
}

func (c *DataConfig) SetDefaults() {
	if c.GTFSPath == "" {
		c.GTFSPath = "data/raw/gtfs.zip"
	}
	if c.DBPath == "" {
		c.DBPath = "data/processed/transit.db"
	}
	if c.PassengerPath == "" {
		c.PassengerPath = "data/processed/passenger_requests.csv"
	}
	if c.ClustersPath == "" {
		c.ClustersPath = "data/processed/stop_clusters.csv"
	}
	if c.ModelsDir == "" {
		c.ModelsDir = "data/models"
	}
	if c.ResultsDir == "" {
		c.ResultsDir = "data/processed"
	}
	if c.RunsDBPath == "" {
		c.RunsDBPath = "data/processed/runs.db"
	}
}

// ClusterConfig drives the k-means zone partitioning.
type ClusterConfig struct {
	K    int   `json:"k"`
	Seed int64 `json:"seed"`
}

func (c *ClusterConfig) SetDefaults() {
	if c.K == 0 {
		c.K = 5
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

func (c *ClusterConfig) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("cluster: k must be >= 1, got %d", c.K)
	}
	return nil
}

type Config struct {
	Data       DataConfig        `json:"data"`
	Simulation simulation.Config `json:"simulation"`
	Generator  genpax.Config     `json:"generator"`
	Cluster    ClusterConfig     `json:"cluster"`
}

func (c *Config) SetDefaults() {
	c.Data.SetDefaults()
	c.Simulation.SetDefaults()
	c.Generator.SetDefaults()
	c.Cluster.SetDefaults()
}

func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	return c.Cluster.Validate()
}

// Default returns a fully defaulted configuration, used when no file
// is given on the command line.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
