// Package store persists load-test runs and their samples to SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mohamed-abdelsamei/loadster/internal/stats"
	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// Run statuses recorded in the runs table.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// Run is one persisted load-test execution.
type Run struct {
	ID          int64
	TargetURL   string
	Method      string
	Concurrency int
	TimeoutMs   int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string

	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	DroppedCalls       int

	AvgLatencyMs   float64
	MinLatencyMs   int64
	MaxLatencyMs   int64
	P50LatencyMs   int64
	P75LatencyMs   int64
	P95LatencyMs   int64
	P99LatencyMs   int64
	Throughput     float64
	WallThroughput float64
	WallDurationMs int64
}

// Store handles run and sample persistence
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and brings its schema up to
// date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts the initial record for a run and fills in its ID.
func (s *Store) CreateRun(run *Run) error {
	result, err := s.db.Exec(`
		INSERT INTO runs
		(target_url, method, concurrency, timeout_ms, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.TargetURL, run.Method, run.Concurrency, run.TimeoutMs, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// FinishRun stamps the run completed and stores the aggregate figures from
// the report plus the dropped-call count.
func (s *Store) FinishRun(run *Run, rep stats.Report, dropped int) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = StatusCompleted
	run.TotalRequests = rep.Total
	run.SuccessfulRequests = rep.Successful
	run.FailedRequests = rep.Failed
	run.DroppedCalls = dropped
	run.AvgLatencyMs = float64(rep.AverageLatency) / float64(time.Millisecond)
	run.MinLatencyMs = rep.MinLatency.Milliseconds()
	run.MaxLatencyMs = rep.MaxLatency.Milliseconds()
	run.P50LatencyMs = rep.MedianLatency.Milliseconds()
	run.P75LatencyMs = rep.P75Latency.Milliseconds()
	run.P95LatencyMs = rep.P95Latency.Milliseconds()
	run.P99LatencyMs = rep.P99Latency.Milliseconds()
	run.Throughput = rep.Throughput
	run.WallThroughput = rep.WallThroughput
	run.WallDurationMs = rep.WallDuration.Milliseconds()

	_, err := s.db.Exec(`
		UPDATE runs
		SET completed_at = ?, status = ?, total_requests = ?, successful_requests = ?,
		    failed_requests = ?, dropped_calls = ?, avg_latency_ms = ?, min_latency_ms = ?,
		    max_latency_ms = ?, p50_latency_ms = ?, p75_latency_ms = ?, p95_latency_ms = ?,
		    p99_latency_ms = ?, throughput = ?, wall_throughput = ?, wall_duration_ms = ?
		WHERE id = ?
	`, run.CompletedAt, run.Status, run.TotalRequests, run.SuccessfulRequests,
		run.FailedRequests, run.DroppedCalls, run.AvgLatencyMs, run.MinLatencyMs,
		run.MaxLatencyMs, run.P50LatencyMs, run.P75LatencyMs, run.P95LatencyMs,
		run.P99LatencyMs, run.Throughput, run.WallThroughput, run.WallDurationMs, run.ID)
	return err
}

// SaveSamples inserts every sample for a run in a single transaction.
func (s *Store) SaveSamples(runID int64, samples []types.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO samples (run_id, timestamp, status_code, latency_ms)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		_, err := stmt.Exec(runID, sample.Timestamp, sample.Status, sample.Latency.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id int64) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, target_url, method, concurrency, timeout_ms, started_at, completed_at, status,
		       total_requests, successful_requests, failed_requests, dropped_calls,
		       avg_latency_ms, min_latency_ms, max_latency_ms,
		       p50_latency_ms, p75_latency_ms, p95_latency_ms, p99_latency_ms,
		       throughput, wall_throughput, wall_duration_ms
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.TargetURL, &run.Method, &run.Concurrency, &run.TimeoutMs,
		&run.StartedAt, &completedAt, &run.Status, &run.TotalRequests,
		&run.SuccessfulRequests, &run.FailedRequests, &run.DroppedCalls,
		&run.AvgLatencyMs, &run.MinLatencyMs, &run.MaxLatencyMs,
		&run.P50LatencyMs, &run.P75LatencyMs, &run.P95LatencyMs, &run.P99LatencyMs,
		&run.Throughput, &run.WallThroughput, &run.WallDurationMs)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, target_url, method, concurrency, timeout_ms, started_at, completed_at, status,
		       total_requests, successful_requests, failed_requests, dropped_calls,
		       avg_latency_ms, min_latency_ms, max_latency_ms,
		       p50_latency_ms, p75_latency_ms, p95_latency_ms, p99_latency_ms,
		       throughput, wall_throughput, wall_duration_ms
		FROM runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.TargetURL, &run.Method, &run.Concurrency, &run.TimeoutMs,
			&run.StartedAt, &completedAt, &run.Status, &run.TotalRequests,
			&run.SuccessfulRequests, &run.FailedRequests, &run.DroppedCalls,
			&run.AvgLatencyMs, &run.MinLatencyMs, &run.MaxLatencyMs,
			&run.P50LatencyMs, &run.P75LatencyMs, &run.P95LatencyMs, &run.P99LatencyMs,
			&run.Throughput, &run.WallThroughput, &run.WallDurationMs)
		if err != nil {
			return nil, err
		}

		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}

		runs = append(runs, run)
	}
	return runs, nil
}

// Totals holds counters summed across every recorded run.
type Totals struct {
	Runs       int
	Requests   int
	Successful int
	Failed     int
	Dropped    int
}

// Totals sums the counters of all recorded runs.
func (s *Store) Totals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(total_requests), 0),
		       COALESCE(SUM(successful_requests), 0),
		       COALESCE(SUM(failed_requests), 0),
		       COALESCE(SUM(dropped_calls), 0)
		FROM runs
	`).Scan(&t.Runs, &t.Requests, &t.Successful, &t.Failed, &t.Dropped)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to sum run totals: %w", err)
	}
	return t, nil
}

// GetSamples returns the recorded samples for a run, oldest first.
func (s *Store) GetSamples(runID int64) ([]types.Sample, error) {
	rows, err := s.db.Query(`
		SELECT status_code, latency_ms, timestamp
		FROM samples
		WHERE run_id = ?
		ORDER BY timestamp
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []types.Sample
	for rows.Next() {
		var status int
		var latencyMs int64
		var ts time.Time

		if err := rows.Scan(&status, &latencyMs, &ts); err != nil {
			return nil, err
		}

		samples = append(samples, types.Sample{
			Status:    status,
			Latency:   time.Duration(latencyMs) * time.Millisecond,
			Timestamp: ts,
		})
	}
	return samples, nil
}

// DeleteRun removes a run and its samples.
func (s *Store) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM samples WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
