package flasher

import (
	"errors"
	"fmt"
)

var (
	// ErrJobAlreadyRunning is returned by Start while a job holds the slot.
	ErrJobAlreadyRunning = errors.New("a flash job is already running")
	// ErrDeviceNotFound is returned by Start when the target serial is not in
	// the current device snapshot.
	ErrDeviceNotFound = errors.New("target device not connected")
	// ErrNotRunning is returned by Cancel when no job is in flight.
	ErrNotRunning = errors.New("no flash job is running")
)

// SpawnError wraps a failure to start the flash process.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
