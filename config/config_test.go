package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `data:
  gtfs_path: "fixtures/city.zip"
  db_path: "out/transit.db"
simulation:
  vehicle_capacity: 40
  dispatch_interval_sec: 900
  sample_size: 500
generator:
  count: 2000
  seed: 7
cluster:
  k: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"gtfs_path", cfg.Data.GTFSPath, "fixtures/city.zip"},
		{"db_path", cfg.Data.DBPath, "out/transit.db"},
		{"passenger_path default", cfg.Data.PassengerPath, "data/processed/passenger_requests.csv"},
		{"vehicle_capacity", cfg.Simulation.VehicleCapacity, 40},
		{"dispatch_interval_sec", cfg.Simulation.DispatchIntervalSec, 900.0},
		{"sample_size", cfg.Simulation.SampleSize, 500},
		{"horizon default", cfg.Simulation.HorizonSec, 86400.0},
		{"generator count", cfg.Generator.Count, 2000},
		{"generator seed", cfg.Generator.Seed, int64(7)},
		{"cluster k", cfg.Cluster.K, 8},
		{"cluster seed default", cfg.Cluster.Seed, int64(42)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("k = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"simulation": {"vehicle_capacity": -1}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Simulation.VehicleCapacity != 60 {
		t.Fatalf("unexpected default capacity: %d", cfg.Simulation.VehicleCapacity)
	}
}
