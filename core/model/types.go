package model

import "time"

// PassengerRequest is one synthetic travel request. Records are created by
// the generator and read-only during simulation.
type PassengerRequest struct {
	ID          int64  `json:"passenger_id"`
	Origin      string `json:"origin_id"`
	Destination string `json:"destination_id"`
	// RequestTime is seconds since the simulation epoch, 0-86399.
	RequestTime int `json:"request_time"`
}

// Stop is a transit stop from the network feed.
type Stop struct {
	ID   string  `json:"stop_id"`
	Name string  `json:"stop_name"`
	Lat  float64 `json:"stop_lat"`
	Lon  float64 `json:"stop_lon"`
}

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64
	Lon float64
}

// Summary holds the KPIs of a single simulation run.
type Summary struct {
	AverageWaitMinutes float64 `json:"average_wait_minutes"`
	TotalCost          float64 `json:"total_cost"`
	TotalKm            float64 `json:"total_km"`
	PassengersServed   int     `json:"passengers_served"`
	PassengersFailed   int     `json:"passengers_failed"`
	CostPerPassenger   float64 `json:"cost_per_passenger"`
}

// RunResult is the persisted outcome of a run: the summary plus metadata.
type RunResult struct {
	RunID      string    `json:"run_id"`
	Policy     string    `json:"policy"`
	Timestamp  time.Time `json:"run_timestamp"`
	SampleSize int       `json:"sample_size"`
	Results    Summary   `json:"results"`
}

// Policy names as they appear in persisted results.
const (
	PolicyStatic  = "static"
	PolicyDynamic = "dynamic"
)
