// Package cluster groups stops into demand zones with a seeded k-means
// over their coordinates. The simulation consumes only the resulting
// stop-to-zone mapping; this tool exists so the pipeline runs end to end.
package cluster

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/transitlab/busopt/core/model"
)

const maxIterations = 100

// Assign clusters the stops into k zones. Deterministic for a fixed seed.
func Assign(stops []model.Stop, k int, seed int64) (map[string]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if len(stops) < k {
		return nil, fmt.Errorf("cannot form %d clusters from %d stops", k, len(stops))
	}

	points := standardize(stops)
	rng := rand.New(rand.NewSource(seed))

	// initial centroids: k distinct stops
	centroids := make([][2]float64, k)
	for i, idx := range rng.Perm(len(points))[:k] {
		centroids[i] = points[idx]
	}

	labels := make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearest(p, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recompute(points, labels, centroids)
	}

	out := make(map[string]int, len(stops))
	for i, s := range stops {
		out[s.ID] = labels[i]
	}
	return out, nil
}

// standardize maps (lon, lat) to zero-mean unit-variance features.
func standardize(stops []model.Stop) [][2]float64 {
	lons := make([]float64, len(stops))
	lats := make([]float64, len(stops))
	for i, s := range stops {
		lons[i] = s.Lon
		lats[i] = s.Lat
	}
	lonMean, lonStd := stat.MeanStdDev(lons, nil)
	latMean, latStd := stat.MeanStdDev(lats, nil)
	if lonStd == 0 || math.IsNaN(lonStd) {
		lonStd = 1
	}
	if latStd == 0 || math.IsNaN(latStd) {
		latStd = 1
	}
	points := make([][2]float64, len(stops))
	for i := range stops {
		points[i] = [2]float64{(lons[i] - lonMean) / lonStd, (lats[i] - latMean) / latStd}
	}
	return points
}

func nearest(p [2]float64, centroids [][2]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		dx, dy := p[0]-c[0], p[1]-c[1]
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func recompute(points [][2]float64, labels []int, centroids [][2]float64) {
	counts := make([]int, len(centroids))
	sums := make([][2]float64, len(centroids))
	for i, p := range points {
		l := labels[i]
		sums[l][0] += p[0]
		sums[l][1] += p[1]
		counts[l]++
	}
	for i := range centroids {
		if counts[i] == 0 {
			continue // empty cluster keeps its centroid
		}
		centroids[i][0] = sums[i][0] / float64(counts[i])
		centroids[i][1] = sums[i][1] / float64(counts[i])
	}
}

// WriteCSV emits the stop-to-zone mapping in the format LoadClusterMap
// reads, preserving the stops' input order.
func WriteCSV(w io.Writer, stops []model.Stop, assignment map[string]int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stop_id", "cluster"}); err != nil {
		return err
	}
	for _, s := range stops {
		zone, ok := assignment[s.ID]
		if !ok {
			continue
		}
		if err := cw.Write([]string{s.ID, strconv.Itoa(zone)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
