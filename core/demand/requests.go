// Package demand loads the simulation inputs: the passenger request
// stream, the static schedule, the stop-to-zone mapping, and stop
// coordinates. All lookups are index-backed after construction.
package demand

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/infra/logger"
)

// LoadRequests reads the passenger demand CSV
// (passenger_id,origin_id,destination_id,request_time) and returns the
// requests sorted ascending by request time. The sort is stable: requests
// sharing a timestamp keep their input order. sampleSize > 0 truncates the
// input to its first sampleSize rows before sorting. Malformed rows are
// skipped with a warning; a bad record never aborts the run.
func LoadRequests(r io.Reader, sampleSize int, log logger.Logger) ([]model.PassengerRequest, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read passenger header: %w", err)
	}
	col, err := columnIndex(header, "passenger_id", "origin_id", "destination_id", "request_time")
	if err != nil {
		return nil, err
	}

	var out []model.PassengerRequest
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read passenger row: %w", err)
		}
		if sampleSize > 0 && len(out) >= sampleSize {
			break
		}
		id, err1 := strconv.ParseInt(rec[col["passenger_id"]], 10, 64)
		ts, err2 := strconv.Atoi(rec[col["request_time"]])
		if err1 != nil || err2 != nil || ts < 0 || ts > 86399 {
			skipped++
			continue
		}
		out = append(out, model.PassengerRequest{
			ID:          id,
			Origin:      rec[col["origin_id"]],
			Destination: rec[col["destination_id"]],
			RequestTime: ts,
		})
	}
	if skipped > 0 {
		log.Warnf("skipped %d malformed passenger rows", skipped)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequestTime < out[j].RequestTime
	})
	return out, nil
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, n := range names {
		if _, ok := col[n]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", n, header)
		}
	}
	return col, nil
}

// TimeToSeconds converts a GTFS HH:MM:SS string to seconds-of-day. GTFS
// permits hours >= 24 for after-midnight trips.
func TimeToSeconds(s string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*3600 + m*60 + sec, nil
}
