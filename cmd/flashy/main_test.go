package main

import (
	"bytes"
	"strings"
	"testing"

	"flashy/internal/ipc"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{"status", "devices", "flash", "cancel", "log", "history", "adb-devices", "reboot-edl", "config"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]column{{title: "Serial"}, {title: "Mode"}},
		[][]string{{"CB4713E8", "edl"}, {"5EC4ABFD"}},
	)
	if !strings.Contains(out, "CB4713E8") || !strings.Contains(out, "edl") {
		t.Fatalf("table missing cells:\n%s", out)
	}
	if !strings.Contains(out, "Serial") {
		t.Fatalf("table missing header:\n%s", out)
	}
}

func TestRenderTableDeviceColumns(t *testing.T) {
	out := renderTable(deviceColumns, [][]string{
		{"CB4713E8", "05c6:9008", "edl", "1", "4", "yes", "Qualcomm EDL"},
	})
	for _, want := range []string{"Serial", "Flashable", "CB4713E8", "05c6:9008"} {
		if !strings.Contains(out, want) {
			t.Fatalf("device table missing %q:\n%s", want, out)
		}
	}
}

func TestStatusWriterSections(t *testing.T) {
	var buf bytes.Buffer
	w := newStatusWriter(&buf)
	if w.colorize {
		t.Fatal("buffer output must not colorize")
	}
	w.section("Daemon")
	w.line("Running", statusOK, "yes")

	out := buf.String()
	if !strings.Contains(out, "== Daemon ==") {
		t.Fatalf("missing section header:\n%s", out)
	}
	if !strings.Contains(out, "[OK] yes") {
		t.Fatalf("missing status line:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("uncolored output contains ansi codes:\n%s", out)
	}
}

func TestDescribeJob(t *testing.T) {
	if got := describeJob(ipc.JobInfo{State: "idle"}); got != "idle" {
		t.Fatalf("idle job: %q", got)
	}
	code := 7
	got := describeJob(ipc.JobInfo{State: "failed", Serial: "A", ExitCode: &code})
	if !strings.Contains(got, "failed") || !strings.Contains(got, "exit 7") {
		t.Fatalf("failed job description: %q", got)
	}
}

func TestJobStateKind(t *testing.T) {
	if jobStateKind("succeeded") != statusOK {
		t.Fatal("succeeded should render OK")
	}
	if jobStateKind("failed") != statusError {
		t.Fatal("failed should render ERROR")
	}
	if jobStateKind("cancelled") != statusWarn {
		t.Fatal("cancelled should render WARN")
	}
}

func TestRenderStatusLineWithoutColor(t *testing.T) {
	line := renderStatusLine("Running", statusOK, "yes", false)
	if !strings.Contains(line, "Running:") || !strings.Contains(line, "[OK] yes") {
		t.Fatalf("unexpected status line: %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("uncolored line contains ansi codes: %q", line)
	}
}
