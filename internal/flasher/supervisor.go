package flasher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"flashy/internal/config"
	"flashy/internal/firmware"
	"flashy/internal/logging"
	"flashy/internal/state"
)

// Recorder receives terminal job summaries for persistence.
type Recorder interface {
	RecordJob(summary state.JobSummary, logTail []string)
}

// Supervisor owns the single flash job slot and drives the qdl process
// through its lifecycle.
type Supervisor struct {
	cfg      *config.Config
	store    *state.Store
	launcher Launcher
	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	current *Job
	proc    Process
}

// NewSupervisor constructs a Supervisor. recorder may be nil.
func NewSupervisor(cfg *config.Config, store *state.Store, launcher Launcher, recorder Recorder, logger *slog.Logger) *Supervisor {
	if launcher == nil {
		launcher = NewExecLauncher()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		cfg:      cfg,
		store:    store,
		launcher: launcher,
		recorder: recorder,
		logger:   logger.With(logging.String(logging.FieldComponent, "flasher")),
	}
}

// Current returns the most recent job, which may be terminal, or nil when no
// job has ever run.
func (s *Supervisor) Current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Job returns the job with the given id if it is the current one.
func (s *Supervisor) Job(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID() != id {
		return nil, false
	}
	return s.current, true
}

// Start claims the job slot and spawns the flash process for the given
// device and bundle. Claiming is atomic: concurrent Start calls serialize,
// and exactly one succeeds while a job is non-terminal.
//
// A spawn failure still consumes the request: the returned job is already
// Failed and the slot is free for the next Start.
func (s *Supervisor) Start(serial string, bundle *firmware.Bundle) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !s.current.State().Terminal() {
		return nil, ErrJobAlreadyRunning
	}

	dev, ok := s.store.Snapshot().BySerial(serial)
	if !ok || !dev.Targetable() {
		return nil, ErrDeviceNotFound
	}

	job := newJob(uuid.New().String(), serial, bundle.Dir, string(bundle.Storage))
	name, args := s.buildCommand(serial, bundle)

	s.logger.Info("starting flash job",
		logging.String(logging.FieldJobID, job.ID()),
		logging.String(logging.FieldSerial, serial),
		logging.String("bundle_dir", bundle.Dir),
		logging.String("storage", string(bundle.Storage)))

	proc, err := s.launcher.Launch(bundle.Dir, name, args...)
	if err != nil {
		now := time.Now()
		job.finish(state.JobFailed, nil, err.Error(), now)
		s.current = job
		s.proc = nil
		s.store.SetJob(job.Summary())
		s.record(job)
		s.logger.Error("flash process failed to start",
			logging.String(logging.FieldJobID, job.ID()),
			logging.Error(err))
		return job, nil
	}

	job.markRunning(time.Now())
	s.current = job
	s.proc = proc
	s.store.SetJob(job.Summary())

	go s.monitor(job, proc)

	return job, nil
}

// Cancel requests cancellation of the running job and returns immediately.
// The job transitions to Cancelled once the process is gone.
func (s *Supervisor) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.current
	proc := s.proc
	if job == nil || job.State().Terminal() || proc == nil {
		return ErrNotRunning
	}

	job.markCancelRequested()
	s.logger.Info("cancelling flash job", logging.String(logging.FieldJobID, job.ID()))

	if err := proc.Terminate(); err != nil {
		s.logger.Warn("terminate failed, escalating to kill",
			logging.String(logging.FieldJobID, job.ID()),
			logging.Error(err))
		_ = proc.Kill()
		return nil
	}

	grace := time.Duration(s.cfg.Flasher.CancelGraceSecs) * time.Second
	go func() {
		select {
		case <-job.Done():
		case <-time.After(grace):
			s.logger.Warn("grace period expired, killing process group",
				logging.String(logging.FieldJobID, job.ID()))
			_ = proc.Kill()
		}
	}()

	return nil
}

// monitor drains process output into the job log, waits for exit, and moves
// the job to its terminal state.
func (s *Supervisor) monitor(job *Job, proc Process) {
	for line := range proc.Output() {
		job.appendLine(line)
	}

	code, err := proc.Wait()
	now := time.Now()

	switch {
	case job.cancelWasRequested():
		job.finish(state.JobCancelled, &code, "", now)
	case err != nil:
		job.finish(state.JobFailed, nil, err.Error(), now)
	case code == 0:
		job.finish(state.JobSucceeded, &code, "", now)
	default:
		job.finish(state.JobFailed, &code, "", now)
	}

	summary := job.Summary()
	s.store.SetJob(summary)
	s.record(job)

	attrs := []logging.Attr{
		logging.String(logging.FieldJobID, job.ID()),
		logging.String(logging.FieldSerial, job.Serial()),
		logging.String("state", string(summary.State)),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)),
	}
	if summary.ExitCode != nil {
		attrs = append(attrs, logging.Int("exit_code", *summary.ExitCode))
	}
	if summary.State == state.JobSucceeded {
		s.logger.Info("flash job finished", logging.Args(attrs...)...)
	} else {
		s.logger.Warn("flash job finished", logging.Args(attrs...)...)
	}
}

func (s *Supervisor) record(job *Job) {
	if s.recorder == nil {
		return
	}
	lines, _, _ := job.Log(0)
	limit := s.cfg.Flasher.HistoryLogLimit
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	s.recorder.RecordJob(job.Summary(), lines)
}

// buildCommand assembles the qdl invocation. The process runs with the
// bundle directory as its working directory, so file arguments stay relative.
func (s *Supervisor) buildCommand(serial string, bundle *firmware.Bundle) (string, []string) {
	var args []string
	if s.cfg.Flasher.DebugOutput {
		args = append(args, "-d")
	}
	args = append(args, "-S", serial, "--storage", string(bundle.Storage))
	args = append(args, bundle.Files()...)

	if s.cfg.Flasher.RunWithPrivilege {
		return "sudo", append([]string{s.cfg.Flasher.QDLBinary}, args...)
	}
	return s.cfg.Flasher.QDLBinary, args
}
