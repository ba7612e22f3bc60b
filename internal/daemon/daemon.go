package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"flashy/internal/adb"
	"flashy/internal/config"
	"flashy/internal/firmware"
	"flashy/internal/flasher"
	"flashy/internal/history"
	"flashy/internal/logging"
	"flashy/internal/scanner"
	"flashy/internal/state"
	"flashy/internal/usb"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *state.Store
	history    *history.Store
	scanner    *scanner.Scanner
	supervisor *flasher.Supervisor
	adb        *adb.Client
	monitor    *usbMonitor
	logPath    string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	DeviceCount   int
	Scan          state.ScanStatus
	Job           state.JobSummary
	HistoryDBPath string
	LockFilePath  string
	SocketPath    string
}

// historyRecorder adapts the history store to the supervisor's Recorder
// interface.
type historyRecorder struct {
	store  *history.Store
	logger *slog.Logger
}

func (r *historyRecorder) RecordJob(summary state.JobSummary, logTail []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Record(ctx, summary, logTail); err != nil {
		r.logger.Warn("failed to persist flash history",
			logging.Error(err),
			logging.String(logging.FieldJobID, summary.ID),
		)
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, histStore *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || histStore == nil || logger == nil {
		return nil, errors.New("daemon requires config, history store, and logger")
	}

	store := state.NewStore()
	recorder := &historyRecorder{store: histStore, logger: logging.NewComponentLogger(logger, "history")}
	supervisor := flasher.NewSupervisor(cfg, store, nil, recorder, logger)
	scan := scanner.New(cfg, store, nil, logger)

	var adbClient *adb.Client
	if cfg.ADB.Enabled {
		adbClient = adb.New(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "flashyd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		history:    histStore,
		scanner:    scan,
		supervisor: supervisor,
		adb:        adbClient,
		logPath:    filepath.Join(cfg.Paths.LogDir, "flashy.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.monitor = newUSBMonitor(cfg, logger, scan.Kick)
	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another flashy daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.scanner.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start scanner: %w", err)
	}
	if d.monitor != nil {
		// Hotplug monitoring is an optimization over polling; a failure here
		// is logged inside Start and does not stop the daemon.
		_ = d.monitor.Start(d.ctx)
	}

	d.running.Store(true)
	d.logger.Info("flashy daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	d.scanner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("flashy daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Snapshot returns the current device snapshot and scan health.
func (d *Daemon) Snapshot() (usb.Snapshot, state.ScanStatus) {
	return d.store.Snapshot(), d.store.ScanStatus()
}

// SubscribeDeviceEvents registers for connect/disconnect events.
func (d *Daemon) SubscribeDeviceEvents() (<-chan scanner.Event, func()) {
	return d.scanner.Subscribe()
}

// CurrentJob returns the most recent flash job summary.
func (d *Daemon) CurrentJob() state.JobSummary {
	return d.store.Job()
}

// RequestFlash validates the firmware bundle and starts a flash job for the
// given serial. storageOverride selects the storage medium; empty uses the
// configured default.
func (d *Daemon) RequestFlash(serial, bundleDir, storageOverride string) (state.JobSummary, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return state.JobSummary{}, errors.New("device serial is required")
	}

	storageName := storageOverride
	if strings.TrimSpace(storageName) == "" {
		storageName = d.cfg.Flasher.Storage
	}
	storage, err := firmware.ParseStorage(storageName)
	if err != nil {
		return state.JobSummary{}, err
	}

	dir := strings.TrimSpace(bundleDir)
	if dir == "" {
		dir = d.cfg.Paths.FirmwareDir
	}
	if dir == "" {
		return state.JobSummary{}, errors.New("firmware directory is required")
	}

	bundle, err := firmware.Resolve(dir, storage)
	if err != nil {
		return state.JobSummary{}, err
	}

	job, err := d.supervisor.Start(serial, bundle)
	if err != nil {
		return state.JobSummary{}, err
	}
	return job.Summary(), nil
}

// RequestCancel cancels the running flash job.
func (d *Daemon) RequestCancel() error {
	return d.supervisor.Cancel()
}

// JobLog returns log lines for the given job starting at offset. With wait
// set, the call blocks until lines arrive, the job finishes, or ctx ends.
func (d *Daemon) JobLog(ctx context.Context, jobID string, offset int, wait bool) ([]string, int, bool, error) {
	job, ok := d.resolveJob(jobID)
	if !ok {
		return nil, 0, false, fmt.Errorf("unknown job %q", jobID)
	}
	if wait {
		lines, next, done := job.WaitLog(ctx, offset)
		return lines, next, done, nil
	}
	lines, next, done := job.Log(offset)
	return lines, next, done, nil
}

func (d *Daemon) resolveJob(jobID string) (*flasher.Job, bool) {
	if jobID == "" {
		job := d.supervisor.Current()
		return job, job != nil
	}
	return d.supervisor.Job(jobID)
}

// History returns persisted flash records, optionally filtered by serial.
func (d *Daemon) History(ctx context.Context, serial string, limit int) ([]history.Record, error) {
	if strings.TrimSpace(serial) != "" {
		return d.history.BySerial(ctx, serial, limit)
	}
	return d.history.List(ctx, limit)
}

// ClearHistory removes all persisted flash records.
func (d *Daemon) ClearHistory(ctx context.Context) error {
	return d.history.Clear(ctx)
}

// HistoryStats returns aggregate history counts.
func (d *Daemon) HistoryStats(ctx context.Context) (history.Stats, error) {
	return d.history.Stats(ctx)
}

// ADBDevices lists devices visible to adb. Fails when adb integration is
// disabled.
func (d *Daemon) ADBDevices(ctx context.Context) ([]adb.Device, error) {
	if d.adb == nil {
		return nil, errors.New("adb integration is disabled")
	}
	return d.adb.Devices(ctx)
}

// RebootEDL reboots the adb device behind transportID into download mode and
// kicks the scanner so the reappearing EDL interface is noticed promptly.
func (d *Daemon) RebootEDL(ctx context.Context, transportID string) error {
	if d.adb == nil {
		return errors.New("adb integration is disabled")
	}
	if err := d.adb.RebootEDL(ctx, transportID); err != nil {
		return err
	}
	d.scanner.Kick()
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	snap := d.store.Snapshot()
	return Status{
		Running:       d.running.Load(),
		DeviceCount:   len(snap.Devices),
		Scan:          d.store.ScanStatus(),
		Job:           d.store.Job(),
		HistoryDBPath: filepath.Join(d.cfg.Paths.LogDir, "history.db"),
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.Socket(),
	}
}
