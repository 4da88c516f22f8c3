package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohamed-abdelsamei/loadster/internal/stats"
	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// newTestStore creates a Store backed by a throwaway database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "loadster.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(started time.Time) *Run {
	return &Run{
		TargetURL:   "https://api.example.test/health",
		Method:      "GET",
		Concurrency: 10,
		TimeoutMs:   30000,
		StartedAt:   started,
		Status:      StatusRunning,
	}
}

// TestStore_CreateAndGetRun tests the initial run record round trip.
func TestStore_CreateAndGetRun(t *testing.T) {
	s := newTestStore(t)

	started := time.Now().UTC().Truncate(time.Second)
	run := testRun(started)

	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("Expected run ID to be set after insert")
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.TargetURL != run.TargetURL {
		t.Errorf("TargetURL = %q, want %q", got.TargetURL, run.TargetURL)
	}
	if got.Method != "GET" || got.Concurrency != 10 || got.TimeoutMs != 30000 {
		t.Errorf("Unexpected run fields: %+v", got)
	}
	if got.Status != StatusRunning {
		t.Errorf("Status = %q, want %q", got.Status, StatusRunning)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.CompletedAt != nil {
		t.Errorf("Expected nil CompletedAt for a running run, got: %v", got.CompletedAt)
	}
}

// TestStore_FinishRun tests that the report figures land in the run record.
func TestStore_FinishRun(t *testing.T) {
	s := newTestStore(t)

	run := testRun(time.Now().UTC().Truncate(time.Second))
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rep := stats.Aggregate([]types.Sample{
		{Status: 200, Latency: 100 * time.Millisecond, Timestamp: base.Add(100 * time.Millisecond)},
		{Status: 200, Latency: 200 * time.Millisecond, Timestamp: base.Add(200 * time.Millisecond)},
		{Status: 500, Latency: 300 * time.Millisecond, Timestamp: base.Add(300 * time.Millisecond)},
	})

	if err := s.FinishRun(run, rep, 2); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
	if got.TotalRequests != 3 || got.SuccessfulRequests != 2 || got.FailedRequests != 1 {
		t.Errorf("Counts = %d/%d/%d, want 3/2/1", got.TotalRequests, got.SuccessfulRequests, got.FailedRequests)
	}
	if got.DroppedCalls != 2 {
		t.Errorf("DroppedCalls = %d, want 2", got.DroppedCalls)
	}
	if got.AvgLatencyMs != 200 {
		t.Errorf("AvgLatencyMs = %v, want 200", got.AvgLatencyMs)
	}
	if got.MinLatencyMs != 100 || got.MaxLatencyMs != 300 {
		t.Errorf("Min/Max = %d/%d, want 100/300", got.MinLatencyMs, got.MaxLatencyMs)
	}
	if got.P50LatencyMs != 200 {
		t.Errorf("P50LatencyMs = %d, want 200", got.P50LatencyMs)
	}
	if got.Throughput != rep.Throughput {
		t.Errorf("Throughput = %v, want %v", got.Throughput, rep.Throughput)
	}
	if got.WallDurationMs != rep.WallDuration.Milliseconds() {
		t.Errorf("WallDurationMs = %d, want %d", got.WallDurationMs, rep.WallDuration.Milliseconds())
	}
}

// TestStore_SaveAndGetSamples tests the batch insert and ordered read-back.
func TestStore_SaveAndGetSamples(t *testing.T) {
	s := newTestStore(t)

	run := testRun(time.Now().UTC().Truncate(time.Second))
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := []types.Sample{
		{Status: 500, Latency: 300 * time.Millisecond, Timestamp: base.Add(3 * time.Second)},
		{Status: 200, Latency: 100 * time.Millisecond, Timestamp: base.Add(1 * time.Second)},
		{Status: 201, Latency: 200 * time.Millisecond, Timestamp: base.Add(2 * time.Second)},
	}

	if err := s.SaveSamples(run.ID, samples); err != nil {
		t.Fatalf("SaveSamples failed: %v", err)
	}

	got, err := s.GetSamples(run.ID)
	if err != nil {
		t.Fatalf("GetSamples failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 samples, got: %d", len(got))
	}

	// Oldest first regardless of insert order.
	wantStatus := []int{200, 201, 500}
	wantLatency := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i := range got {
		if got[i].Status != wantStatus[i] {
			t.Errorf("samples[%d].Status = %d, want %d", i, got[i].Status, wantStatus[i])
		}
		if got[i].Latency != wantLatency[i] {
			t.Errorf("samples[%d].Latency = %v, want %v", i, got[i].Latency, wantLatency[i])
		}
	}
}

// TestStore_SaveSamplesEmpty tests that an empty batch is a no-op.
func TestStore_SaveSamplesEmpty(t *testing.T) {
	s := newTestStore(t)

	run := testRun(time.Now().UTC().Truncate(time.Second))
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.SaveSamples(run.ID, nil); err != nil {
		t.Fatalf("SaveSamples with no samples failed: %v", err)
	}

	got, err := s.GetSamples(run.ID)
	if err != nil {
		t.Fatalf("GetSamples failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected 0 samples, got: %d", len(got))
	}
}

// TestStore_ListRuns tests newest-first ordering and the limit.
func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		run := testRun(base.Add(time.Duration(i) * time.Minute))
		if err := s.CreateRun(run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got: %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("Expected newest first, got IDs: %d, %d, %d", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	limited, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 runs with limit, got: %d", len(limited))
	}
	if limited[0].ID != ids[2] {
		t.Errorf("Expected newest run first under limit, got ID: %d", limited[0].ID)
	}
}

// TestStore_DeleteRun tests that a run and its samples go together.
func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)

	run := testRun(time.Now().UTC().Truncate(time.Second))
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	samples := []types.Sample{
		{Status: 200, Latency: 100 * time.Millisecond, Timestamp: time.Now().UTC()},
	}
	if err := s.SaveSamples(run.ID, samples); err != nil {
		t.Fatalf("SaveSamples failed: %v", err)
	}

	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := s.GetRun(run.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected ErrNoRows after delete, got: %v", err)
	}
	got, err := s.GetSamples(run.ID)
	if err != nil {
		t.Fatalf("GetSamples failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected samples deleted with run, got: %d", len(got))
	}
}

// TestStore_Migrations tests that a reopened database is already up to date.
func TestStore_Migrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadster.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	want := allMigrations[len(allMigrations)-1].Version
	if version != want {
		t.Errorf("SchemaVersion = %d, want %d", version, want)
	}
	s.Close()

	// Reopen: migrations must be idempotent.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	version, err = s2.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion after reopen failed: %v", err)
	}
	if version != want {
		t.Errorf("SchemaVersion after reopen = %d, want %d", version, want)
	}
}

// TestStore_Totals tests the counters summed across all recorded runs.
func TestStore_Totals(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.Totals()
	if err != nil {
		t.Fatalf("Totals on empty store failed: %v", err)
	}
	if empty != (Totals{}) {
		t.Errorf("Expected zero totals for empty store, got: %+v", empty)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 2; i++ {
		run := testRun(base.Add(time.Duration(i) * time.Minute))
		if err := s.CreateRun(run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
		rep := stats.Aggregate([]types.Sample{
			{Status: 200, Latency: 100 * time.Millisecond, Timestamp: base},
			{Status: 200, Latency: 200 * time.Millisecond, Timestamp: base},
			{Status: 500, Latency: 300 * time.Millisecond, Timestamp: base},
		})
		if err := s.FinishRun(run, rep, 1); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}
	}

	got, err := s.Totals()
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	want := Totals{Runs: 2, Requests: 6, Successful: 4, Failed: 2, Dropped: 2}
	if got != want {
		t.Errorf("Totals = %+v, want %+v", got, want)
	}
}
