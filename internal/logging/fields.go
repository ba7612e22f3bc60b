package logging

// Standard attribute keys shared across components.
const (
	// FieldComponent identifies the emitting subsystem (scanner, flasher, ipc).
	FieldComponent = "component"

	// FieldEventType tags notable lifecycle events for filtering.
	FieldEventType = "event_type"

	// FieldErrorHint carries a remediation suggestion alongside warnings and errors.
	FieldErrorHint = "error_hint"

	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"

	// FieldJobID identifies a flash job.
	FieldJobID = "job_id"

	// FieldSerial identifies a device by its EDL serial.
	FieldSerial = "serial"
)
