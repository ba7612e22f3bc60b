package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flashy/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "flashy", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Scanner.LsusbBinary != "lsusb" {
		t.Fatalf("unexpected lsusb binary: %q", cfg.Scanner.LsusbBinary)
	}
	if cfg.Scanner.PollInterval != 1 {
		t.Fatalf("unexpected poll interval: %d", cfg.Scanner.PollInterval)
	}
	if len(cfg.Scanner.VendorIDs) != 1 || cfg.Scanner.VendorIDs[0] != "05c6" {
		t.Fatalf("unexpected vendor ids: %v", cfg.Scanner.VendorIDs)
	}
	if cfg.Flasher.QDLBinary != "qdl" || cfg.Flasher.Storage != "emmc" {
		t.Fatalf("unexpected flasher defaults: %+v", cfg.Flasher)
	}
	if cfg.Flasher.CancelGraceSecs != 5 {
		t.Fatalf("unexpected cancel grace: %d", cfg.Flasher.CancelGraceSecs)
	}
	if !cfg.ADB.Enabled || cfg.ADB.Binary != "adb" {
		t.Fatalf("unexpected adb defaults: %+v", cfg.ADB)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Socket() != filepath.Join(wantLogDir, "flashyd.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Socket())
	}
}

func TestLoadParsesAndNormalizesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[paths]
log_dir = "` + dir + `/logs"
firmware_dir = "` + dir + `/fw"

[scanner]
vendor_ids = [" 05C6 ", "1d6b"]
poll_interval = 2

[flasher]
storage = "UFS"
run_with_privilege = true

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: exists=%v path=%q", exists, resolved)
	}
	if cfg.Scanner.VendorIDs[0] != "05c6" || cfg.Scanner.VendorIDs[1] != "1d6b" {
		t.Fatalf("vendor ids not normalized: %v", cfg.Scanner.VendorIDs)
	}
	if cfg.Scanner.PollInterval != 2 {
		t.Fatalf("poll interval not applied: %d", cfg.Scanner.PollInterval)
	}
	if cfg.Flasher.Storage != "ufs" {
		t.Fatalf("storage not lowercased: %q", cfg.Flasher.Storage)
	}
	if !cfg.Flasher.RunWithPrivilege {
		t.Fatal("run_with_privilege not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not lowercased: %q", cfg.Logging.Level)
	}
	if cfg.Paths.FirmwareDir != filepath.Join(dir, "fw") {
		t.Fatalf("firmware dir not expanded: %q", cfg.Paths.FirmwareDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		want     string
	}{
		{"bad storage", "[flasher]\nstorage = \"nvme\"\n", "storage"},
		{"bad vendor id", "[scanner]\nvendor_ids = [\"xyz\"]\n", "vendor"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "format"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.contents), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}

	// The sample parses back as a valid config.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "nested", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	info, err := os.Stat(cfg.Paths.LogDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("log dir not created: %v", err)
	}
}
