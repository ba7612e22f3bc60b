package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"flashy/internal/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSummary(id string, st state.JobState, exitCode *int) state.JobSummary {
	started := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	return state.JobSummary{
		ID:        id,
		Serial:    "CB4713E8",
		State:     st,
		BundleDir: "/fw/demo",
		Storage:   "emmc",
		ExitCode:  exitCode,
		Started:   started,
		Finished:  started.Add(90 * time.Second),
	}
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	zero := 0
	seven := 7
	if err := store.Record(ctx, sampleSummary("job-1", state.JobSucceeded, &zero), []string{"a", "b"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleSummary("job-2", state.JobFailed, &seven), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].JobID != "job-2" {
		t.Fatalf("expected newest first, got %q", records[0].JobID)
	}
	if records[0].ExitCode == nil || *records[0].ExitCode != 7 {
		t.Fatalf("exit code not preserved: %+v", records[0].ExitCode)
	}
	if len(records[1].LogTail) != 2 || records[1].LogTail[1] != "b" {
		t.Fatalf("log tail not preserved: %v", records[1].LogTail)
	}
	if !records[1].Started.Equal(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("start time not preserved: %v", records[1].Started)
	}
}

func TestListHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, sampleSummary("job", state.JobCancelled, nil), nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	records, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestBySerial(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	summary := sampleSummary("job-1", state.JobSucceeded, nil)
	if err := store.Record(ctx, summary, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	other := summary
	other.ID = "job-2"
	other.Serial = "OTHER"
	if err := store.Record(ctx, other, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := store.BySerial(ctx, "CB4713E8", 0)
	if err != nil {
		t.Fatalf("BySerial: %v", err)
	}
	if len(records) != 1 || records[0].Serial != "CB4713E8" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestClearAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	zero := 0
	if err := store.Record(ctx, sampleSummary("job-1", state.JobSucceeded, &zero), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleSummary("job-2", state.JobFailed, nil), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleSummary("job-3", state.JobCancelled, nil), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Succeeded != 1 || stats.Failed != 1 || stats.Cancelled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d", len(records))
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Record(context.Background(), sampleSummary("job-1", state.JobSucceeded, nil), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected record to survive reopen, got %d", len(records))
	}
}
