// Package genpax produces the synthetic passenger demand set: seeded,
// peak-shaped request times over one day, random origin/destination pairs.
package genpax

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/transitlab/busopt/core/model"
)

// Config shapes the generated demand.
type Config struct {
	// Count is the number of passengers to generate.
	Count int `json:"count"`
	// Seed makes the output reproducible.
	Seed int64 `json:"seed"`
	// MorningPeakHour and EveningPeakHour center the two commute peaks.
	MorningPeakHour float64 `json:"morning_peak_hour"`
	EveningPeakHour float64 `json:"evening_peak_hour"`
	// PeakStddevSec is the spread of each peak.
	PeakStddevSec float64 `json:"peak_stddev_sec"`
}

// SetDefaults applies the documented defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Count == 0 {
		c.Count = 100000
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.MorningPeakHour == 0 {
		c.MorningPeakHour = 9
	}
	if c.EveningPeakHour == 0 {
		c.EveningPeakHour = 18
	}
	if c.PeakStddevSec == 0 {
		c.PeakStddevSec = 45 * 60
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	if c.MorningPeakHour < 0 || c.MorningPeakHour > 23 ||
		c.EveningPeakHour < 0 || c.EveningPeakHour > 23 {
		return fmt.Errorf("peak hours must lie within the day")
	}
	return nil
}

// Generate draws cfg.Count passenger requests over the given stops:
// 40% morning peak, 40% evening peak, 20% uniform off-peak. Origins and
// destinations are distinct; request times are clamped to [0, 86399].
func Generate(stopIDs []string, cfg Config) ([]model.PassengerRequest, error) {
	if len(stopIDs) < 2 {
		return nil, fmt.Errorf("need at least 2 stops, got %d", len(stopIDs))
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make([]model.PassengerRequest, cfg.Count)
	for i := range out {
		origin := stopIDs[rng.Intn(len(stopIDs))]
		dest := origin
		for dest == origin {
			dest = stopIDs[rng.Intn(len(stopIDs))]
		}
		out[i] = model.PassengerRequest{
			ID:          int64(i),
			Origin:      origin,
			Destination: dest,
			RequestTime: requestTime(rng, cfg),
		}
	}
	return out, nil
}

func requestTime(rng *rand.Rand, cfg Config) int {
	var t float64
	switch r := rng.Float64(); {
	case r < 0.4:
		t = rng.NormFloat64()*cfg.PeakStddevSec + cfg.MorningPeakHour*3600
	case r < 0.8:
		t = rng.NormFloat64()*cfg.PeakStddevSec + cfg.EveningPeakHour*3600
	default:
		t = float64(rng.Intn(86400))
	}
	if t < 0 {
		t = 0
	}
	if t > 86399 {
		t = 86399
	}
	return int(t)
}

// WriteCSV emits the demand set in the format demand.LoadRequests reads.
func WriteCSV(w io.Writer, requests []model.PassengerRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"passenger_id", "origin_id", "destination_id", "request_time"}); err != nil {
		return err
	}
	for _, r := range requests {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Origin,
			r.Destination,
			strconv.Itoa(r.RequestTime),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
