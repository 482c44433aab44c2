package simulation

import (
	"testing"

	"github.com/transitlab/busopt/core/model"
)

func TestEmptySummaryIsAllZero(t *testing.T) {
	s := NewStats(116.26)
	got := s.Summary()
	want := model.Summary{}
	if got != want {
		t.Fatalf("empty summary = %+v, want zero value", got)
	}
}

func TestSummaryValues(t *testing.T) {
	s := NewStats(2)
	s.Served(60)
	s.Served(180)
	s.Failed(ReasonTimeout)
	s.AddDistance(100)

	got := s.Summary()
	if got.AverageWaitMinutes != 2 {
		t.Fatalf("avg wait = %f, want 2", got.AverageWaitMinutes)
	}
	if got.TotalKm != 100 || got.TotalCost != 200 {
		t.Fatalf("distance/cost = %f/%f", got.TotalKm, got.TotalCost)
	}
	if got.PassengersServed != 2 || got.PassengersFailed != 1 {
		t.Fatalf("served/failed = %d/%d", got.PassengersServed, got.PassengersFailed)
	}
	if got.CostPerPassenger != 100 {
		t.Fatalf("cost per passenger = %f, want 100", got.CostPerPassenger)
	}
	if s.FailedBy(ReasonTimeout) != 1 || s.FailedBy(ReasonCutoff) != 0 {
		t.Fatal("per-reason counters wrong")
	}
}

func TestSummaryIsIdempotent(t *testing.T) {
	s := NewStats(1)
	s.Served(30)
	s.Failed(ReasonCutoff)
	s.AddDistance(5)
	first := s.Summary()
	second := s.Summary()
	if first != second {
		t.Fatalf("summary changed without new events: %+v vs %+v", first, second)
	}
}

func TestCostPerPassengerZeroWhenNoneServed(t *testing.T) {
	s := NewStats(10)
	s.AddDistance(50)
	if got := s.Summary().CostPerPassenger; got != 0 {
		t.Fatalf("cost per passenger = %f, want 0", got)
	}
}
