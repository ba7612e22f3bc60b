package adb

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"flashy/internal/config"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.Output()
}

// Device is one row of `adb devices -l` output.
type Device struct {
	Serial      string
	State       string
	USB         string
	Product     string
	Model       string
	DeviceName  string
	TransportID string
}

// Online reports whether the device is in a state that accepts commands.
func (d Device) Online() bool {
	return d.State == "device"
}

// Client wraps the adb binary.
type Client struct {
	binary  string
	timeout time.Duration
	runner  Runner
}

// New constructs a Client from configuration.
func New(cfg *config.Config) *Client {
	return NewWithRunner(cfg.ADB.Binary, time.Duration(cfg.ADB.Timeout)*time.Second, execRunner{})
}

// NewWithRunner allows injecting a custom runner for testing.
func NewWithRunner(binary string, timeout time.Duration, runner Runner) *Client {
	if runner == nil {
		runner = execRunner{}
	}
	return &Client{
		binary:  strings.TrimSpace(binary),
		timeout: timeout,
		runner:  runner,
	}
}

// Devices lists devices known to the local adb server.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	output, err := c.runner.Output(ctx, c.binary, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDevices(string(output)), nil
}

// RebootEDL asks the device behind the given transport id to reboot into
// emergency download mode. The device drops off the adb bus on success; it
// reappears on the USB bus as an EDL interface shortly after.
func (c *Client) RebootEDL(ctx context.Context, transportID string) error {
	if transportID == "" {
		return fmt.Errorf("adb reboot edl: empty transport id")
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if _, err := c.runner.Output(ctx, c.binary, "-t", transportID, "reboot", "edl"); err != nil {
		return fmt.Errorf("adb reboot edl (transport %s): %w", transportID, err)
	}
	return nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// parseDevices parses `adb devices -l` output. The first line is the banner;
// each subsequent non-empty line is "<serial> <state> [key:value ...]".
func parseDevices(output string) []Device {
	var devices []Device
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		dev := Device{Serial: fields[0], State: fields[1]}
		for _, field := range fields[2:] {
			key, value, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			switch key {
			case "usb":
				dev.USB = value
			case "product":
				dev.Product = value
			case "model":
				dev.Model = value
			case "device":
				dev.DeviceName = value
			case "transport_id":
				dev.TransportID = value
			}
		}
		devices = append(devices, dev)
	}
	return devices
}
