package state

import (
	"errors"
	"testing"
	"time"

	"flashy/internal/usb"
)

func TestScanFailureRetainsSnapshot(t *testing.T) {
	store := NewStore()
	taken := time.Now()
	snap := usb.NewSnapshot([]usb.Device{{VendorID: "05c6", ProductID: "9008", Serial: "A"}}, taken)
	store.SetSnapshot(snap)

	store.ScanFailed(errors.New("lsusb exploded"), taken.Add(time.Second))

	got := store.Snapshot()
	if len(got.Devices) != 1 || got.Devices[0].Serial != "A" {
		t.Fatalf("snapshot lost after scan failure: %+v", got)
	}
	status := store.ScanStatus()
	if status.Healthy() {
		t.Fatal("expected unhealthy scan status")
	}
	if status.Err != "lsusb exploded" {
		t.Fatalf("unexpected scan error: %q", status.Err)
	}
	if !status.LastSuccess.Equal(taken) {
		t.Fatalf("LastSuccess should remain at the last good scan, got %v", status.LastSuccess)
	}
}

func TestSetSnapshotClearsScanError(t *testing.T) {
	store := NewStore()
	store.ScanFailed(errors.New("transient"), time.Now())
	store.SetSnapshot(usb.NewSnapshot(nil, time.Now()))

	if status := store.ScanStatus(); !status.Healthy() {
		t.Fatalf("expected healthy status after success, got %+v", status)
	}
}

func TestInitialJobIsIdle(t *testing.T) {
	store := NewStore()
	job := store.Job()
	if job.State != JobIdle {
		t.Fatalf("expected idle initial job, got %q", job.State)
	}
	if job.State.Terminal() {
		t.Fatal("idle must not be terminal")
	}
}

func TestJobStateTerminal(t *testing.T) {
	terminal := []JobState{JobSucceeded, JobFailed, JobCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%q should be terminal", s)
		}
	}
	if JobRunning.Terminal() || JobIdle.Terminal() {
		t.Fatal("idle and running must not be terminal")
	}
}

func TestSetJobRoundTrip(t *testing.T) {
	store := NewStore()
	code := 1
	store.SetJob(JobSummary{ID: "job-1", Serial: "A", State: JobFailed, ExitCode: &code})

	job := store.Job()
	if job.ID != "job-1" || job.State != JobFailed {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.ExitCode == nil || *job.ExitCode != 1 {
		t.Fatalf("exit code not preserved: %+v", job.ExitCode)
	}
}
