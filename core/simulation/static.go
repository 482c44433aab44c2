package simulation

import (
	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/core/simclock"
	"github.com/transitlab/busopt/infra/logger"
)

// StaticSim replays passengers against the published schedule: each
// passenger independently waits for the next scheduled arrival at its
// origin stop, or gives up.
type StaticSim struct {
	cfg      Config
	requests []model.PassengerRequest
	schedule *demand.ScheduleIndex
	stats    *Stats
	log      logger.Logger

	env *simclock.Env
}

// NewStatic builds the baseline simulation. Requests must already be
// sorted by request time.
func NewStatic(cfg Config, requests []model.PassengerRequest, schedule *demand.ScheduleIndex, log logger.Logger) *StaticSim {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &StaticSim{
		cfg:      cfg,
		requests: requests,
		schedule: schedule,
		stats:    NewStats(cfg.CostPerKm),
		log:      log,
	}
}

// Run executes the replay and returns the KPI summary. The scheduled
// fleet drives its full mileage regardless of demand, so the static
// policy's distance is the fixed fleet figure.
func (s *StaticSim) Run() model.Summary {
	s.env = simclock.New()
	for _, r := range s.requests {
		r := r
		s.env.Process(func(p *simclock.Proc) {
			s.passenger(p, r)
		})
	}
	s.env.Run(-1)

	s.stats.AddDistance(s.cfg.StaticFleetKm)
	sum := s.stats.Summary()
	s.log.Infof("static run done: served=%d failed=%d avg_wait_min=%.2f",
		sum.PassengersServed, sum.PassengersFailed, sum.AverageWaitMinutes)
	return sum
}

func (s *StaticSim) passenger(p *simclock.Proc, r model.PassengerRequest) {
	if err := p.WaitUntil(float64(r.RequestTime)); err != nil {
		return
	}
	next, ok := s.schedule.Next(r.Origin, r.RequestTime)
	if !ok {
		if s.schedule.HasStop(r.Origin) {
			s.stats.Failed(ReasonNoDeparture)
		} else {
			s.stats.Failed(ReasonNoSchedule)
		}
		return
	}
	gap := float64(next - r.RequestTime)
	// an abandoning passenger does not sit out the gap; the clock stays
	// at the request time
	if gap > s.cfg.WaitTimeoutSec {
		s.stats.Failed(ReasonTimeout)
		return
	}
	if err := p.Wait(gap); err != nil {
		return
	}
	s.stats.Served(gap)
}
