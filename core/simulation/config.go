package simulation

import "fmt"

// Config holds the fixed operating parameters of a run. They are supplied
// at construction and never change mid-run.
type Config struct {
	// VehicleCapacity is the number of passengers one bus can board.
	VehicleCapacity int `json:"vehicle_capacity"`
	// DispatchIntervalSec is the period of the dynamic dispatcher.
	DispatchIntervalSec float64 `json:"dispatch_interval_sec"`
	// HorizonSec is the simulated end time; remaining demand is finalized
	// as failed once it is reached.
	HorizonSec float64 `json:"horizon_sec"`
	// AvgSpeedKmh converts trip distance to travel duration.
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
	// CostPerKm prices vehicle-kilometers.
	CostPerKm float64 `json:"cost_per_km"`
	// WaitTimeoutSec is the longest gap a static-policy passenger accepts
	// before abandoning.
	WaitTimeoutSec float64 `json:"wait_timeout_sec"`
	// LookaheadSec is the future offset used when querying the forecaster.
	LookaheadSec float64 `json:"lookahead_sec"`
	// IdleSec is how long an empty bus lingers before returning.
	IdleSec float64 `json:"idle_sec"`
	// MinTripSec and MaxTripSec clamp computed trip durations.
	MinTripSec float64 `json:"min_trip_sec"`
	MaxTripSec float64 `json:"max_trip_sec"`
	// StaticFleetKm is the distance the scheduled fleet drives in a day
	// regardless of demand; it prices the static policy.
	StaticFleetKm float64 `json:"static_fleet_km"`
	// SampleSize truncates the passenger set when > 0.
	SampleSize int `json:"sample_size"`
	// Seed makes any randomness in the pipeline reproducible.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the documented defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.VehicleCapacity == 0 {
		c.VehicleCapacity = 60
	}
	if c.DispatchIntervalSec == 0 {
		c.DispatchIntervalSec = 30 * 60
	}
	if c.HorizonSec == 0 {
		c.HorizonSec = 24 * 60 * 60
	}
	if c.AvgSpeedKmh == 0 {
		c.AvgSpeedKmh = 18
	}
	if c.CostPerKm == 0 {
		c.CostPerKm = 116.26
	}
	if c.WaitTimeoutSec == 0 {
		c.WaitTimeoutSec = 45 * 60
	}
	if c.LookaheadSec == 0 {
		c.LookaheadSec = 60 * 60
	}
	if c.IdleSec == 0 {
		c.IdleSec = 5 * 60
	}
	if c.MinTripSec == 0 {
		c.MinTripSec = 10 * 60
	}
	if c.MaxTripSec == 0 {
		c.MaxTripSec = 60 * 60
	}
	if c.StaticFleetKm == 0 {
		c.StaticFleetKm = 645000
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.VehicleCapacity <= 0 {
		return fmt.Errorf("vehicle_capacity must be positive, got %d", c.VehicleCapacity)
	}
	if c.DispatchIntervalSec <= 0 {
		return fmt.Errorf("dispatch_interval_sec must be positive")
	}
	if c.HorizonSec <= 0 {
		return fmt.Errorf("horizon_sec must be positive")
	}
	if c.AvgSpeedKmh <= 0 {
		return fmt.Errorf("avg_speed_kmh must be positive")
	}
	if c.CostPerKm < 0 {
		return fmt.Errorf("cost_per_km must not be negative")
	}
	if c.WaitTimeoutSec <= 0 {
		return fmt.Errorf("wait_timeout_sec must be positive")
	}
	if c.MinTripSec > c.MaxTripSec {
		return fmt.Errorf("min_trip_sec %v exceeds max_trip_sec %v", c.MinTripSec, c.MaxTripSec)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative")
	}
	return nil
}
