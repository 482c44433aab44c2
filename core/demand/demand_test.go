package demand

import (
	"math"
	"strings"
	"testing"

	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/infra/logger"
)

const passengerCSV = `passenger_id,origin_id,destination_id,request_time
1,S1,S2,3600
2,S2,S3,1800
3,S3,S1,3600
4,S1,S3,bogus
5,S2,S1,900
`

func TestLoadRequestsSortsStable(t *testing.T) {
	reqs, err := LoadRequests(strings.NewReader(passengerCSV), 0, logger.NopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 4 {
		t.Fatalf("expected 4 valid rows, got %d", len(reqs))
	}
	wantIDs := []int64{5, 2, 1, 3}
	for i, w := range wantIDs {
		if reqs[i].ID != w {
			t.Fatalf("position %d has passenger %d, want %d", i, reqs[i].ID, w)
		}
	}
	// ties at t=3600 keep input order: 1 before 3
	if reqs[2].RequestTime != 3600 || reqs[3].RequestTime != 3600 {
		t.Fatalf("tie rows misplaced: %+v", reqs)
	}
}

func TestLoadRequestsSample(t *testing.T) {
	reqs, err := LoadRequests(strings.NewReader(passengerCSV), 2, logger.NopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 {
		t.Fatalf("sample size ignored: %d rows", len(reqs))
	}
}

func TestLoadRequestsMissingColumn(t *testing.T) {
	_, err := LoadRequests(strings.NewReader("a,b\n1,2\n"), 0, logger.NopLogger{})
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestTimeToSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00:00", 0, true},
		{"08:30:15", 8*3600 + 30*60 + 15, true},
		{"25:10:00", 25*3600 + 600, true}, // GTFS after-midnight
		{"08:61:00", 0, false},
		{"garbage", 0, false},
	}
	for _, c := range cases {
		got, err := TimeToSeconds(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("TimeToSeconds(%q) = %d, %v; want %d", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("TimeToSeconds(%q) should fail", c.in)
		}
	}
}

func TestScheduleIndexNext(t *testing.T) {
	idx := BuildScheduleIndex([]StopArrival{
		{StopID: "S1", Seconds: 7200},
		{StopID: "S1", Seconds: 3600},
	})
	if got, ok := idx.Next("S1", 3000); !ok || got != 3600 {
		t.Fatalf("Next(3000) = %d, %v", got, ok)
	}
	// strictly greater: a bus arriving exactly now is missed
	if got, ok := idx.Next("S1", 3600); !ok || got != 7200 {
		t.Fatalf("Next(3600) = %d, %v", got, ok)
	}
	if _, ok := idx.Next("S1", 7200); ok {
		t.Fatal("no departure after last arrival expected")
	}
	if _, ok := idx.Next("S9", 0); ok {
		t.Fatal("unknown stop should have no schedule")
	}
	if !idx.HasStop("S1") || idx.HasStop("S9") {
		t.Fatal("HasStop mismatch")
	}
}

func TestLoadClusterMap(t *testing.T) {
	csv := "stop_id,cluster\nA,1\nB,0\nC,1\nA,9\n"
	cm, err := LoadClusterMap(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if z, ok := cm.ZoneOf("A"); !ok || z != 1 {
		t.Fatalf("ZoneOf(A) = %d, %v; duplicate row must not win", z, ok)
	}
	if _, ok := cm.ZoneOf("Z"); ok {
		t.Fatal("unmapped stop resolved to a zone")
	}
	stops := cm.StopsIn(1)
	if len(stops) != 2 || stops[0] != "A" || stops[1] != "C" {
		t.Fatalf("canonical order broken: %v", stops)
	}
	zones := cm.Zones()
	if len(zones) != 2 || zones[0] != 0 || zones[1] != 1 {
		t.Fatalf("zones not ascending: %v", zones)
	}
}

func TestHaversine(t *testing.T) {
	// Mumbai CST to Pune station, roughly 120 km
	a := model.LatLon{Lat: 18.9398, Lon: 72.8354}
	b := model.LatLon{Lat: 18.5289, Lon: 73.8744}
	d := Haversine(a, b)
	if d < 100 || d > 130 {
		t.Fatalf("implausible distance %f km", d)
	}
	if Haversine(a, a) != 0 {
		t.Fatal("zero distance expected for identical points")
	}
}

func TestCoordinatesMissingEndpoint(t *testing.T) {
	c := NewCoordinates([]model.Stop{{ID: "A", Lat: 1, Lon: 1}})
	if c.Distance("A", "missing") != 0 {
		t.Fatal("missing endpoint must contribute 0 km")
	}
	if c.Distance("missing", "A") != 0 {
		t.Fatal("missing endpoint must contribute 0 km")
	}
	if math.Abs(c.Distance("A", "A")) > 1e-9 {
		t.Fatal("same stop distance should be 0")
	}
}
