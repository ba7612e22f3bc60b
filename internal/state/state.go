package state

import (
	"sync"
	"time"

	"flashy/internal/usb"
)

// JobState names a phase of a flash job's lifecycle.
type JobState string

const (
	JobIdle      JobState = "idle"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobSummary is a snapshot of one flash job, safe to copy across goroutines.
type JobSummary struct {
	ID        string
	Serial    string
	State     JobState
	BundleDir string
	Storage   string
	// ExitCode is set once the process exits. Nil while running and for jobs
	// that failed before spawn.
	ExitCode *int
	Error    string
	Started  time.Time
	Finished time.Time
	LogLines int
}

// ScanStatus reports the health of the enumeration loop.
type ScanStatus struct {
	// Err is the most recent scan failure, cleared on the next success.
	Err         string
	LastAttempt time.Time
	LastSuccess time.Time
}

// Healthy reports whether the last scan attempt succeeded.
func (s ScanStatus) Healthy() bool {
	return s.Err == ""
}

// Store is the single shared-state container for the daemon.
type Store struct {
	mu       sync.RWMutex
	snapshot usb.Snapshot
	scan     ScanStatus
	job      JobSummary
}

// NewStore returns an empty store. The initial job summary is Idle.
func NewStore() *Store {
	return &Store{job: JobSummary{State: JobIdle}}
}

// Snapshot returns the last successfully observed device set.
func (s *Store) Snapshot() usb.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetSnapshot replaces the current device snapshot and marks the scan healthy.
func (s *Store) SetSnapshot(snap usb.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.scan.Err = ""
	s.scan.LastAttempt = snap.Taken
	s.scan.LastSuccess = snap.Taken
}

// ScanFailed records a failed enumeration attempt. The previous snapshot is
// retained so consumers keep seeing the last known good device set.
func (s *Store) ScanFailed(err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scan.Err = err.Error()
	s.scan.LastAttempt = at
}

// ScanStatus returns the current scan-loop health.
func (s *Store) ScanStatus() ScanStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan
}

// Job returns the current flash job summary.
func (s *Store) Job() JobSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.job
}

// SetJob replaces the current flash job summary.
func (s *Store) SetJob(job JobSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = job
}
