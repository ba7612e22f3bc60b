// Package flasher supervises the external qdl flash process.
//
// At most one flash job exists at a time. The Supervisor owns the job slot:
// Start atomically claims it or fails with ErrJobAlreadyRunning, and the slot
// frees only when the job reaches a terminal state. Job output is captured as
// an append-only line log that any number of subscribers can stream without
// ever blocking the producer.
//
// Cancellation is two-phase: SIGTERM to the process group, a grace period,
// then SIGKILL. A job whose cancellation was requested always finishes as
// Cancelled, whatever exit status the process manages to report.
package flasher
