package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/model"
)

// ErrMissingModel marks a zone without a trained artifact. A mapped zone
// with no artifact is a fatal configuration error at startup.
var ErrMissingModel = errors.New("forecast: missing model artifact")

// HourlyModel predicts arrivals from a per-zone table of expected counts
// per hour of day. Times beyond one day wrap around.
type HourlyModel struct {
	rates map[int][24]float64
}

type artifact struct {
	Zone   int         `json:"zone"`
	Hourly [24]float64 `json:"hourly"`
}

// Predict returns the expected arrival count for the zone at time t.
// Unknown zones and negative times predict zero.
func (m *HourlyModel) Predict(zone int, t float64) float64 {
	r, ok := m.rates[zone]
	if !ok || t < 0 {
		return 0
	}
	hour := int(t/3600) % 24
	return r[hour]
}

// Load reads one artifact per zone from dir. Every given zone must have an
// artifact named zone_<id>.json; a missing file aborts with ErrMissingModel
// naming the path.
func Load(dir string, zones []int) (*HourlyModel, error) {
	m := &HourlyModel{rates: make(map[int][24]float64, len(zones))}
	for _, z := range zones {
		path := filepath.Join(dir, fmt.Sprintf("zone_%d.json", z))
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrMissingModel, path)
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var a artifact
		if err := json.Unmarshal(b, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		m.rates[z] = a.Hourly
	}
	return m, nil
}

// Save writes one artifact per zone into dir, creating it if needed.
func (m *HourlyModel) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for z, r := range m.rates {
		b, err := json.MarshalIndent(artifact{Zone: z, Hourly: r}, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("zone_%d.json", z))
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// Fit counts arrivals per zone and hour over the demand set, producing the
// expected hourly rate table. Requests at unmapped stops are ignored.
func Fit(requests []model.PassengerRequest, clusters *demand.ClusterMap) *HourlyModel {
	m := &HourlyModel{rates: make(map[int][24]float64)}
	for _, z := range clusters.Zones() {
		m.rates[z] = [24]float64{}
	}
	for _, r := range requests {
		zone, ok := clusters.ZoneOf(r.Origin)
		if !ok {
			continue
		}
		hour := r.RequestTime / 3600
		if hour < 0 || hour > 23 {
			continue
		}
		rates := m.rates[zone]
		rates[hour]++
		m.rates[zone] = rates
	}
	return m
}
