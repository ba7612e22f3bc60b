package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"flashy/internal/config"
	"flashy/internal/history"
	"flashy/internal/logging"
	"flashy/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.ADB.Enabled = false
	return &cfg
}

func testDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	hist, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	d, err := New(cfg, hist, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestStartStopLifecycleAndLock(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("status should report running")
	}

	// A second instance sharing the lock file must be rejected.
	other := testDaemon(t, cfg)
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("second daemon should fail to acquire the lock")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("status should report stopped")
	}
	d.Stop() // idempotent
}

func TestRequestFlashValidation(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg)

	if _, err := d.RequestFlash("", "/tmp", ""); err == nil {
		t.Fatal("empty serial must be rejected")
	}
	if _, err := d.RequestFlash("SER", "", ""); err == nil {
		t.Fatal("missing firmware directory must be rejected")
	}
	if _, err := d.RequestFlash("SER", t.TempDir(), "floppy"); err == nil {
		t.Fatal("unsupported storage must be rejected")
	}
	// Valid storage, but the directory holds no bundle.
	if _, err := d.RequestFlash("SER", t.TempDir(), "ufs"); err == nil {
		t.Fatal("empty bundle directory must be rejected")
	}
}

func TestRequestFlashUsesConfiguredFirmwareDir(t *testing.T) {
	cfg := testConfig(t)
	fwDir := t.TempDir()
	for _, name := range []string{"prog_firehose_ddr.elf", "rawprogram0.xml"} {
		if err := os.WriteFile(filepath.Join(fwDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cfg.Paths.FirmwareDir = fwDir
	d := testDaemon(t, cfg)

	// Bundle resolution succeeds; the start then fails because no device with
	// this serial is connected.
	_, err := d.RequestFlash("NOPE", "", "")
	if err == nil {
		t.Fatal("expected device-not-found error")
	}
}

func TestRequestCancelWithoutJob(t *testing.T) {
	d := testDaemon(t, testConfig(t))
	if err := d.RequestCancel(); err == nil {
		t.Fatal("cancel without a job should fail")
	}
}

func TestJobLogUnknownJob(t *testing.T) {
	d := testDaemon(t, testConfig(t))
	if _, _, _, err := d.JobLog(context.Background(), "nope", 0, false); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestADBDisabled(t *testing.T) {
	d := testDaemon(t, testConfig(t))

	if _, err := d.ADBDevices(context.Background()); err == nil {
		t.Fatal("adb devices should fail when integration is disabled")
	}
	if err := d.RebootEDL(context.Background(), "1"); err == nil {
		t.Fatal("reboot edl should fail when integration is disabled")
	}
}

func TestHistoryRoundTripThroughDaemon(t *testing.T) {
	d := testDaemon(t, testConfig(t))
	ctx := context.Background()

	records, err := d.History(ctx, "", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d", len(records))
	}
	if err := d.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	stats, err := d.HistoryStats(ctx)
	if err != nil {
		t.Fatalf("HistoryStats: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestStatusFields(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg)

	status := d.Status()
	if status.Running {
		t.Fatal("daemon not started yet")
	}
	if status.Job.State != state.JobIdle {
		t.Fatalf("expected idle job, got %q", status.Job.State)
	}
	if status.SocketPath != cfg.Socket() {
		t.Fatalf("socket path mismatch: %q vs %q", status.SocketPath, cfg.Socket())
	}
	if filepath.Dir(status.HistoryDBPath) != cfg.Paths.LogDir {
		t.Fatalf("history db should live in the log dir: %q", status.HistoryDBPath)
	}
}
