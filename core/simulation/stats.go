package simulation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/transitlab/busopt/core/model"
)

// FailReason classifies why a passenger ended unserved. Failures are
// outcomes, not errors: they never abort the run.
type FailReason string

const (
	ReasonNoSchedule  FailReason = "no_schedule_for_stop"
	ReasonNoDeparture FailReason = "no_further_departures"
	ReasonTimeout     FailReason = "wait_timeout"
	ReasonCutoff      FailReason = "unserved_at_cutoff"
)

// Stats accumulates per-run statistics. Appends happen only between
// suspension points of the single-threaded simulation, so plain fields
// suffice. Every passenger ends in exactly one of served or failed.
type Stats struct {
	costPerKm float64

	waits    []float64 // seconds
	served   int
	failed   int
	byReason map[FailReason]int
	totalKm  float64
}

// NewStats returns an empty accumulator pricing distance at costPerKm.
func NewStats(costPerKm float64) *Stats {
	return &Stats{costPerKm: costPerKm, byReason: make(map[FailReason]int)}
}

// Served records a served passenger with its wait in seconds.
func (s *Stats) Served(waitSec float64) {
	s.waits = append(s.waits, waitSec)
	s.served++
}

// Failed records a terminal failure outcome.
func (s *Stats) Failed(reason FailReason) {
	s.failed++
	s.byReason[reason]++
}

// AddDistance accumulates vehicle-kilometers.
func (s *Stats) AddDistance(km float64) {
	s.totalKm += km
}

// FailedBy returns how many passengers failed for the given reason.
func (s *Stats) FailedBy(reason FailReason) int { return s.byReason[reason] }

// Summary derives the run KPIs from the accumulated state alone. Calling
// it repeatedly without new events yields identical output.
func (s *Stats) Summary() model.Summary {
	avgWaitMin := 0.0
	if len(s.waits) > 0 {
		avgWaitMin = stat.Mean(s.waits, nil) / 60
	}
	totalCost := s.totalKm * s.costPerKm
	costPerPax := 0.0
	if s.served > 0 {
		costPerPax = totalCost / float64(s.served)
	}
	return model.Summary{
		AverageWaitMinutes: avgWaitMin,
		TotalCost:          totalCost,
		TotalKm:            s.totalKm,
		PassengersServed:   s.served,
		PassengersFailed:   s.failed,
		CostPerPassenger:   costPerPax,
	}
}
