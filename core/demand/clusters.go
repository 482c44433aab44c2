package demand

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ClusterMap resolves stops to demand zones and back. Zone membership is
// exactly the external clustering artifact; stops absent from it belong to
// no zone and are excluded from zone-scoped dispatch.
type ClusterMap struct {
	zoneOf map[string]int
	stops  map[int][]string
	zones  []int
}

// LoadClusterMap reads the stop-to-zone CSV (stop_id,cluster). The order
// of stops within a zone follows the file, which is the canonical ordering
// used for dispatch tie-breaks.
func LoadClusterMap(r io.Reader) (*ClusterMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read cluster header: %w", err)
	}
	col, err := columnIndex(header, "stop_id", "cluster")
	if err != nil {
		return nil, err
	}
	cm := &ClusterMap{
		zoneOf: make(map[string]int),
		stops:  make(map[int][]string),
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cluster row: %w", err)
		}
		stopID := rec[col["stop_id"]]
		zone, err := strconv.Atoi(rec[col["cluster"]])
		if err != nil {
			return nil, fmt.Errorf("cluster id for stop %s: %w", stopID, err)
		}
		if _, dup := cm.zoneOf[stopID]; dup {
			continue
		}
		cm.zoneOf[stopID] = zone
		cm.stops[zone] = append(cm.stops[zone], stopID)
	}
	for z := range cm.stops {
		cm.zones = append(cm.zones, z)
	}
	sort.Ints(cm.zones)
	return cm, nil
}

// NewClusterMap builds a ClusterMap from an in-memory assignment, keyed by
// stop in the given order. Used by the clustering tool and tests.
func NewClusterMap(stopOrder []string, assignment map[string]int) *ClusterMap {
	cm := &ClusterMap{
		zoneOf: make(map[string]int, len(assignment)),
		stops:  make(map[int][]string),
	}
	for _, id := range stopOrder {
		zone, ok := assignment[id]
		if !ok {
			continue
		}
		if _, dup := cm.zoneOf[id]; dup {
			continue
		}
		cm.zoneOf[id] = zone
		cm.stops[zone] = append(cm.stops[zone], id)
	}
	for z := range cm.stops {
		cm.zones = append(cm.zones, z)
	}
	sort.Ints(cm.zones)
	return cm
}

// ZoneOf returns the zone of a stop; ok is false for unmapped stops.
func (c *ClusterMap) ZoneOf(stopID string) (int, bool) {
	z, ok := c.zoneOf[stopID]
	return z, ok
}

// StopsIn returns the zone's stops in canonical order. The returned slice
// must not be mutated.
func (c *ClusterMap) StopsIn(zone int) []string {
	return c.stops[zone]
}

// Zones returns all zone ids in ascending order.
func (c *ClusterMap) Zones() []int { return c.zones }
