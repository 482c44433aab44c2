// Package gtfs ingests a static transit feed into SQLite and exposes the
// queries the rest of the system needs: stops, scheduled arrivals, and
// consecutive-stop travel edges.
package gtfs

import (
	"archive/zip"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/transitlab/busopt/core/demand"
	"github.com/transitlab/busopt/core/model"
	"github.com/transitlab/busopt/core/routegraph"
	"github.com/transitlab/busopt/infra/logger"
)

// Store wraps the ingested feed database.
type Store struct {
	db *sql.DB
}

// Open opens an existing feed database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS stops (
    stop_id TEXT PRIMARY KEY,
    stop_name TEXT,
    stop_lat REAL,
    stop_lon REAL
);
CREATE TABLE IF NOT EXISTS stop_times (
    trip_id TEXT,
    stop_id TEXT,
    arrival_seconds INTEGER,
    stop_sequence INTEGER
);
CREATE INDEX IF NOT EXISTS idx_stop_times_trip ON stop_times(trip_id, stop_sequence);
CREATE TABLE IF NOT EXISTS trips (
    trip_id TEXT PRIMARY KEY,
    route_id TEXT,
    service_id TEXT
);
CREATE TABLE IF NOT EXISTS routes (
    route_id TEXT PRIMARY KEY,
    route_short_name TEXT,
    route_long_name TEXT
);`

// Ingest loads a GTFS zip into a fresh database at dbPath. stops.txt and
// stop_times.txt are mandatory; trips.txt and routes.txt are loaded when
// present. Rows with unparseable times or coordinates are skipped.
func Ingest(zipPath, dbPath string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", zipPath, err)
	}
	defer func() { _ = zr.Close() }()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	// a re-ingest replaces the previous feed wholesale
	if _, err := db.Exec(`DELETE FROM stops; DELETE FROM stop_times; DELETE FROM trips; DELETE FROM routes;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reset feed tables: %w", err)
	}
	s := &Store{db: db}

	loaders := []struct {
		name     string
		required bool
		load     func(*sql.Tx, *csv.Reader, logger.Logger) (int, error)
	}{
		{"stops.txt", true, loadStops},
		{"stop_times.txt", true, loadStopTimes},
		{"trips.txt", false, loadTrips},
		{"routes.txt", false, loadRoutes},
	}
	for _, l := range loaders {
		f := findFile(&zr.Reader, l.name)
		if f == nil {
			if l.required {
				_ = db.Close()
				return nil, fmt.Errorf("feed %s is missing %s", zipPath, l.name)
			}
			log.Warnf("feed has no %s, skipping", l.name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open %s: %w", l.name, err)
		}
		tx, err := db.Begin()
		if err != nil {
			_ = rc.Close()
			_ = db.Close()
			return nil, err
		}
		cr := csv.NewReader(rc)
		cr.FieldsPerRecord = -1
		n, err := l.load(tx, cr, log)
		_ = rc.Close()
		if err != nil {
			_ = tx.Rollback()
			_ = db.Close()
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
		if err := tx.Commit(); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Infof("loaded %d rows from %s", n, l.name)
	}
	return s, nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func loadStops(tx *sql.Tx, cr *csv.Reader, log logger.Logger) (int, error) {
	col, err := headerIndex(cr, "stop_id", "stop_lat", "stop_lon")
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO stops (stop_id, stop_name, stop_lat, stop_lon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	n, skipped := 0, 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		lat, err1 := strconv.ParseFloat(rec[col["stop_lat"]], 64)
		lon, err2 := strconv.ParseFloat(rec[col["stop_lon"]], 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		name := ""
		if i, ok := col["stop_name"]; ok && i < len(rec) {
			name = rec[i]
		}
		if _, err := stmt.Exec(rec[col["stop_id"]], name, lat, lon); err != nil {
			return n, err
		}
		n++
	}
	if skipped > 0 {
		log.Warnf("skipped %d stops without coordinates", skipped)
	}
	return n, nil
}

func loadStopTimes(tx *sql.Tx, cr *csv.Reader, log logger.Logger) (int, error) {
	col, err := headerIndex(cr, "trip_id", "stop_id", "arrival_time", "stop_sequence")
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT INTO stop_times (trip_id, stop_id, arrival_seconds, stop_sequence) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	n, skipped := 0, 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		secs, err1 := demand.TimeToSeconds(rec[col["arrival_time"]])
		seq, err2 := strconv.Atoi(rec[col["stop_sequence"]])
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		if _, err := stmt.Exec(rec[col["trip_id"]], rec[col["stop_id"]], secs, seq); err != nil {
			return n, err
		}
		n++
	}
	if skipped > 0 {
		log.Warnf("skipped %d malformed stop_times rows", skipped)
	}
	return n, nil
}

func loadTrips(tx *sql.Tx, cr *csv.Reader, _ logger.Logger) (int, error) {
	col, err := headerIndex(cr, "trip_id", "route_id")
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO trips (trip_id, route_id, service_id) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()
	return insertRows(cr, func(rec []string) error {
		service := ""
		if i, ok := col["service_id"]; ok && i < len(rec) {
			service = rec[i]
		}
		_, err := stmt.Exec(rec[col["trip_id"]], rec[col["route_id"]], service)
		return err
	})
}

func loadRoutes(tx *sql.Tx, cr *csv.Reader, _ logger.Logger) (int, error) {
	col, err := headerIndex(cr, "route_id")
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO routes (route_id, route_short_name, route_long_name) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()
	return insertRows(cr, func(rec []string) error {
		short, long := "", ""
		if i, ok := col["route_short_name"]; ok && i < len(rec) {
			short = rec[i]
		}
		if i, ok := col["route_long_name"]; ok && i < len(rec) {
			long = rec[i]
		}
		_, err := stmt.Exec(rec[col["route_id"]], short, long)
		return err
	})
}

func insertRows(cr *csv.Reader, insert func([]string) error) (int, error) {
	n := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := insert(rec); err != nil {
			return n, err
		}
		n++
	}
}

func headerIndex(cr *csv.Reader, required ...string) (map[string]int, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, r := range required {
		if _, ok := col[r]; !ok {
			return nil, fmt.Errorf("missing column %q", r)
		}
	}
	return col, nil
}

// Stops returns all stops with coordinates.
func (s *Store) Stops() ([]model.Stop, error) {
	rows, err := s.db.Query(`SELECT stop_id, stop_name, stop_lat, stop_lon FROM stops ORDER BY stop_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Stop
	for rows.Next() {
		var st model.Stop
		if err := rows.Scan(&st.ID, &st.Name, &st.Lat, &st.Lon); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StopArrivals returns every scheduled arrival for the schedule index.
func (s *Store) StopArrivals() ([]demand.StopArrival, error) {
	rows, err := s.db.Query(`SELECT stop_id, arrival_seconds FROM stop_times`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []demand.StopArrival
	for rows.Next() {
		var a demand.StopArrival
		if err := rows.Scan(&a.StopID, &a.Seconds); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Edges returns consecutive-stop hops with positive travel time, the raw
// material of the route graph.
func (s *Store) Edges() ([]routegraph.Edge, error) {
	rows, err := s.db.Query(`
        SELECT a.stop_id, b.stop_id, b.arrival_seconds - a.arrival_seconds
        FROM stop_times a
        JOIN stop_times b ON a.trip_id = b.trip_id AND b.stop_sequence = a.stop_sequence + 1
        WHERE b.arrival_seconds > a.arrival_seconds`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []routegraph.Edge
	for rows.Next() {
		var e routegraph.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Seconds); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
