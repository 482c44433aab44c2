package simulation

import (
	"math"

	"github.com/samber/lo"

	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/forecast"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/core/simclock"
	"github.com/transitlab/busopt/infra/logger"
)

// waiting is one queued passenger at a stop.
type waiting struct {
	id          int64
	origin      string
	destination string
	enqueued    float64
}

// DynamicSim replays passengers under the forecast-driven policy: a
// periodic dispatcher sizes the fleet per zone and bus processes drain
// stop queues.
type DynamicSim struct {
	cfg      Config
	requests []model.PassengerRequest
	clusters *demand.ClusterMap
	coords   demand.Coordinates
	fc       forecast.Forecaster
	stats    *Stats
	log      logger.Logger

	env     *simclock.Env
	queues  map[string][]waiting
	active  map[int]int
	spawned map[int]int
	arrived int // requests delivered into queues so far
}

// NewDynamic builds the forecast-driven simulation. Requests must already
// be sorted by request time; clusters and the forecaster cover the zones
// under dispatch.
func NewDynamic(cfg Config, requests []model.PassengerRequest, clusters *demand.ClusterMap,
	coords demand.Coordinates, fc forecast.Forecaster, log logger.Logger) *DynamicSim {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &DynamicSim{
		cfg:      cfg,
		requests: requests,
		clusters: clusters,
		coords:   coords,
		fc:       fc,
		stats:    NewStats(cfg.CostPerKm),
		log:      log,
	}
}

// Run executes the replay up to the horizon, finalizes unserved demand,
// and returns the KPI summary.
func (s *DynamicSim) Run() model.Summary {
	s.env = simclock.New()
	s.queues = make(map[string][]waiting)
	s.active = make(map[int]int)
	s.spawned = make(map[int]int)
	s.arrived = 0

	s.env.Process(s.arrivals)
	s.env.Process(s.dispatcher)
	s.env.Run(s.cfg.HorizonSec)

	s.finalize()
	sum := s.stats.Summary()
	s.log.Infof("dynamic run done: served=%d failed=%d km=%.1f avg_wait_min=%.2f",
		sum.PassengersServed, sum.PassengersFailed, sum.TotalKm, sum.AverageWaitMinutes)
	return sum
}

// arrivals walks the sorted request stream and appends each passenger to
// its origin queue at its request time. Unmapped origins still queue; no
// bus ever visits them, so those passengers fail at the cutoff.
func (s *DynamicSim) arrivals(p *simclock.Proc) {
	for _, r := range s.requests {
		if err := p.WaitUntil(float64(r.RequestTime)); err != nil {
			return
		}
		s.queues[r.Origin] = append(s.queues[r.Origin], waiting{
			id:          r.ID,
			origin:      r.Origin,
			destination: r.Destination,
			enqueued:    p.Now(),
		})
		s.arrived++
	}
}

// dispatcher evaluates the fleet per zone immediately and then on every
// dispatch interval.
func (s *DynamicSim) dispatcher(p *simclock.Proc) {
	for {
		s.evaluate(p.Now())
		if err := p.Wait(s.cfg.DispatchIntervalSec); err != nil {
			return
		}
	}
}

// evaluate sizes each zone's fleet from forecast plus queued demand and
// spawns any missing buses. The fleet counter is incremented before the
// bus process starts running.
func (s *DynamicSim) evaluate(now float64) {
	for _, zone := range s.clusters.Zones() {
		zone := zone
		predicted := s.fc.Predict(zone, now+s.cfg.LookaheadSec)
		queued := lo.SumBy(s.clusters.StopsIn(zone), func(stopID string) int {
			return len(s.queues[stopID])
		})
		metric := math.Max(0, predicted) + float64(queued)
		needed := int(math.Ceil(metric / float64(s.cfg.VehicleCapacity)))
		additional := needed - s.active[zone]
		if additional <= 0 {
			continue
		}
		s.log.Debugw("dispatch decision", map[string]any{
			"zone": zone, "t": now, "forecast": predicted,
			"queued": queued, "spawning": additional,
		})
		for i := 0; i < additional; i++ {
			if s.busiestStop(zone) == "" {
				break
			}
			s.active[zone]++
			s.spawned[zone]++
			s.env.Process(func(p *simclock.Proc) {
				s.bus(p, zone)
			})
		}
	}
}

// busiestStop returns the stop with the deepest queue in the zone, ties
// going to the first stop in the zone's canonical ordering. With every
// queue empty it falls back to the zone's first stop so a dispatched bus
// has somewhere to idle; zones without stops yield "".
func (s *DynamicSim) busiestStop(zone int) string {
	stops := s.clusters.StopsIn(zone)
	if len(stops) == 0 {
		return ""
	}
	best := ""
	depth := 0
	for _, id := range stops {
		if n := len(s.queues[id]); n > depth {
			best = id
			depth = n
		}
	}
	if best == "" {
		return stops[0]
	}
	return best
}

// bus re-resolves the busiest stop at boarding time, boards up to
// capacity, travels, and returns its slot to the zone's fleet counter.
func (s *DynamicSim) bus(p *simclock.Proc, zone int) {
	stop := s.busiestStop(zone)
	q := s.queues[stop]
	if stop == "" || len(q) == 0 {
		// nobody waiting anywhere in the zone
		if err := p.Wait(s.cfg.IdleSec); err != nil {
			return
		}
		s.release(zone)
		return
	}

	n := len(q)
	if n > s.cfg.VehicleCapacity {
		n = s.cfg.VehicleCapacity
	}
	boarded := q[:n]
	s.queues[stop] = q[n:]

	tripKm := 0.0
	for _, w := range boarded {
		s.stats.Served(p.Now() - w.enqueued)
		tripKm += s.coords.Distance(w.origin, w.destination)
	}
	s.stats.AddDistance(tripKm)

	duration := tripKm / math.Max(0.1, s.cfg.AvgSpeedKmh) * 3600
	if duration < s.cfg.MinTripSec {
		duration = s.cfg.MinTripSec
	}
	if duration > s.cfg.MaxTripSec {
		duration = s.cfg.MaxTripSec
	}
	if err := p.Wait(duration); err != nil {
		return
	}
	s.release(zone)
}

// release returns a bus to the zone pool. The counter never goes negative.
func (s *DynamicSim) release(zone int) {
	if s.active[zone] > 0 {
		s.active[zone]--
	}
}

// finalize records every passenger still queued at the horizon, plus any
// request the horizon cut off before it could even arrive, as failed.
// This runs exactly once per passenger, at run level.
func (s *DynamicSim) finalize() {
	remaining := 0
	for _, q := range s.queues {
		remaining += len(q)
	}
	for i := 0; i < remaining; i++ {
		s.stats.Failed(ReasonCutoff)
	}
	for i := s.arrived; i < len(s.requests); i++ {
		s.stats.Failed(ReasonCutoff)
	}
	s.queues = make(map[string][]waiting)
}
