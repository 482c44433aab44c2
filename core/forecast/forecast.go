// Package forecast supplies the demand predictor consumed by the dynamic
// dispatcher. The simulation core only sees the Forecaster contract; how a
// model was trained or persisted stays behind it.
package forecast

// Forecaster predicts the expected number of passenger arrivals in a zone
// around simulated time t (seconds since the simulation epoch). Callers
// clamp negative predictions to zero.
type Forecaster interface {
	Predict(zone int, t float64) float64
}

// Static is a fixed-value Forecaster for tests.
type Static struct {
	V float64
}

// Predict returns the configured value regardless of zone and time.
func (s Static) Predict(int, float64) float64 { return s.V }
