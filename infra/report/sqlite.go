package report

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/transitlab/busopt/core/model"
)

// SQLiteStore keeps a history of run results in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS sim_runs (
        run_id TEXT PRIMARY KEY,
        policy TEXT,
        run_timestamp INTEGER,
        sample_size INTEGER,
        avg_wait_min REAL,
        total_cost REAL,
        total_km REAL,
        served INTEGER,
        failed INTEGER,
        cost_per_pax REAL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts the run record.
func (s *SQLiteStore) Add(r model.RunResult) error {
	_, err := s.db.Exec(`INSERT INTO sim_runs
        (run_id, policy, run_timestamp, sample_size, avg_wait_min, total_cost, total_km, served, failed, cost_per_pax)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Policy, r.Timestamp.Unix(), r.SampleSize,
		r.Results.AverageWaitMinutes, r.Results.TotalCost, r.Results.TotalKm,
		r.Results.PassengersServed, r.Results.PassengersFailed, r.Results.CostPerPassenger)
	return err
}

// Query returns runs since the given time, oldest first. An empty policy
// matches every policy.
func (s *SQLiteStore) Query(policy string, since time.Time) ([]model.RunResult, error) {
	rows, err := s.db.Query(`SELECT run_id, policy, run_timestamp, sample_size,
        avg_wait_min, total_cost, total_km, served, failed, cost_per_pax
        FROM sim_runs WHERE (? = '' OR policy = ?) AND run_timestamp >= ? ORDER BY run_timestamp`,
		policy, policy, since.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.RunResult
	for rows.Next() {
		var r model.RunResult
		var ts int64
		if err := rows.Scan(&r.RunID, &r.Policy, &ts, &r.SampleSize,
			&r.Results.AverageWaitMinutes, &r.Results.TotalCost, &r.Results.TotalKm,
			&r.Results.PassengersServed, &r.Results.PassengersFailed, &r.Results.CostPerPassenger); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
