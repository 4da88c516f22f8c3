package store

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// allMigrations contains all database migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add status index to runs",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_runs_status;
		`,
	},
	{
		Version: 2,
		Name:    "Add wall-clock columns to runs",
		Up: `
			-- wall_throughput and wall_duration_ms already exist in the current schema
			-- This migration is kept for databases created before they were added
		`,
		Down: `
			-- SQLite does not support DROP COLUMN easily
			-- Leaving columns in place
		`,
	},
}

// initSchema creates all tables so a fresh database starts from the current
// shape. It must run before migrations.
func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_url TEXT NOT NULL,
		method TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		timeout_ms INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		status TEXT NOT NULL,
		total_requests INTEGER DEFAULT 0,
		successful_requests INTEGER DEFAULT 0,
		failed_requests INTEGER DEFAULT 0,
		dropped_calls INTEGER DEFAULT 0,
		avg_latency_ms REAL DEFAULT 0,
		min_latency_ms INTEGER DEFAULT 0,
		max_latency_ms INTEGER DEFAULT 0,
		p50_latency_ms INTEGER DEFAULT 0,
		p75_latency_ms INTEGER DEFAULT 0,
		p95_latency_ms INTEGER DEFAULT 0,
		p99_latency_ms INTEGER DEFAULT 0,
		throughput REAL DEFAULT 0,
		wall_throughput REAL DEFAULT 0,
		wall_duration_ms INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		status_code INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run_id ON samples(run_id);
	CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(run_id, timestamp);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// runMigrations executes all pending migrations on the database
func runMigrations(db *sql.DB) error {
	if err := initSchema(db); err != nil {
		return err
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range allMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
