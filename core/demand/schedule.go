package demand

import "sort"

// StopArrival is one scheduled vehicle arrival at a stop.
type StopArrival struct {
	StopID  string
	Seconds int
}

// ScheduleIndex maps each stop to its time-ordered scheduled arrivals.
// Built once, immutable thereafter.
type ScheduleIndex struct {
	byStop map[string][]int
}

// BuildScheduleIndex groups arrivals by stop and sorts each stop's
// arrival times ascending.
func BuildScheduleIndex(rows []StopArrival) *ScheduleIndex {
	byStop := make(map[string][]int)
	for _, r := range rows {
		byStop[r.StopID] = append(byStop[r.StopID], r.Seconds)
	}
	for id := range byStop {
		sort.Ints(byStop[id])
	}
	return &ScheduleIndex{byStop: byStop}
}

// HasStop reports whether any arrival is scheduled at the stop.
func (s *ScheduleIndex) HasStop(stopID string) bool {
	_, ok := s.byStop[stopID]
	return ok
}

// Next returns the earliest scheduled arrival strictly after the given
// time. ok is false when the stop is unknown or no later arrival exists.
func (s *ScheduleIndex) Next(stopID string, after int) (int, bool) {
	arr, ok := s.byStop[stopID]
	if !ok {
		return 0, false
	}
	i := sort.SearchInts(arr, after+1)
	if i == len(arr) {
		return 0, false
	}
	return arr[i], true
}

// Stops returns the number of stops carrying a schedule.
func (s *ScheduleIndex) Stops() int { return len(s.byStop) }
