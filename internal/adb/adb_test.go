package adb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (s *stubRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return s.output, s.err
}

const sampleDevices = `List of devices attached
R5CT30XXXXX            device usb:1-4 product:dm3q model:SM_S918B device:dm3q transport_id:3
emulator-5554          offline transport_id:5
0123456789ABCDEF       unauthorized usb:3-2 transport_id:7

`

func TestDevicesParsesLongListing(t *testing.T) {
	runner := &stubRunner{output: []byte(sampleDevices)}
	client := NewWithRunner("adb", time.Second, runner)

	devices, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}

	first := devices[0]
	if first.Serial != "R5CT30XXXXX" || first.State != "device" {
		t.Fatalf("unexpected first device: %+v", first)
	}
	if first.Model != "SM_S918B" || first.Product != "dm3q" || first.DeviceName != "dm3q" {
		t.Fatalf("key:value fields not parsed: %+v", first)
	}
	if first.TransportID != "3" || first.USB != "1-4" {
		t.Fatalf("transport/usb fields not parsed: %+v", first)
	}
	if !first.Online() {
		t.Fatal("state 'device' should be online")
	}

	if devices[1].State != "offline" || devices[1].Online() {
		t.Fatalf("expected offline emulator, got %+v", devices[1])
	}
	if devices[2].State != "unauthorized" {
		t.Fatalf("expected unauthorized device, got %+v", devices[2])
	}
}

func TestDevicesSkipsBannerAndDaemonNoise(t *testing.T) {
	output := `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached

`
	runner := &stubRunner{output: []byte(output)}
	client := NewWithRunner("adb", time.Second, runner)

	devices, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %+v", devices)
	}
}

func TestDevicesWrapsCommandFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("adb server not running")}
	client := NewWithRunner("adb", time.Second, runner)

	if _, err := client.Devices(context.Background()); err == nil {
		t.Fatal("expected error when adb fails")
	}
}

func TestRebootEDLInvocation(t *testing.T) {
	runner := &stubRunner{}
	client := NewWithRunner("adb", time.Second, runner)

	if err := client.RebootEDL(context.Background(), "3"); err != nil {
		t.Fatalf("RebootEDL: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(runner.calls))
	}
	got := strings.Join(runner.calls[0], " ")
	if got != "adb -t 3 reboot edl" {
		t.Fatalf("unexpected invocation: %q", got)
	}
}

func TestRebootEDLRejectsEmptyTransport(t *testing.T) {
	runner := &stubRunner{}
	client := NewWithRunner("adb", time.Second, runner)

	if err := client.RebootEDL(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty transport id")
	}
	if len(runner.calls) != 0 {
		t.Fatal("no command should run for an empty transport id")
	}
}
