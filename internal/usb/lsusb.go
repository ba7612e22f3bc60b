package usb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
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

// Lister enumerates devices via lsusb, filtered to a vendor id set.
type Lister struct {
	binary  string
	vendors map[string]struct{}
	runner  Runner
}

// NewLister constructs a Lister for the given lsusb binary and vendor ids.
func NewLister(binary string, vendorIDs []string) *Lister {
	return NewListerWithRunner(binary, vendorIDs, execRunner{})
}

// NewListerWithRunner allows injecting a custom runner for testing.
func NewListerWithRunner(binary string, vendorIDs []string, runner Runner) *Lister {
	if runner == nil {
		runner = execRunner{}
	}
	vendors := make(map[string]struct{}, len(vendorIDs))
	for _, id := range vendorIDs {
		vendors[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}
	return &Lister{
		binary:  strings.TrimSpace(binary),
		vendors: vendors,
		runner:  runner,
	}
}

// List enumerates attached devices matching the vendor set. Serials are
// resolved through one verbose descriptor query per distinct vendor:product
// pair. A device whose descriptor lacks an extractable serial is still
// returned, with Serial left empty.
func (l *Lister) List(ctx context.Context) ([]Device, error) {
	if l.binary == "" {
		return nil, errors.New("lsusb binary not configured")
	}

	output, err := l.runner.Output(ctx, l.binary)
	if err != nil {
		return nil, fmt.Errorf("lsusb: %w", err)
	}

	devices := parseListing(string(output), l.vendors)
	if len(devices) == 0 {
		return nil, nil
	}

	// One descriptor query per vendor:product pair covers every unit of that
	// pair in a single invocation.
	seen := make(map[string]struct{})
	for _, dev := range devices {
		if _, ok := seen[dev.ID()]; ok {
			continue
		}
		seen[dev.ID()] = struct{}{}

		descOut, err := l.runner.Output(ctx, l.binary, "-v", "-d", dev.ID())
		if err != nil {
			// Descriptor queries can fail for permission reasons while the
			// plain listing works; affected devices stay serial-less.
			continue
		}
		products := parseDescriptorProducts(string(descOut))
		for i := range devices {
			key := positionKey(devices[i].Bus, devices[i].Address)
			if product, ok := products[key]; ok && devices[i].ID() == dev.ID() {
				devices[i].Serial = ExtractSerial(product)
			}
		}
	}

	return devices, nil
}

var listingPattern = regexp.MustCompile(`^Bus (\d{3}) Device (\d{3}): ID ([0-9a-fA-F]{4}):([0-9a-fA-F]{4})\s*(.*)$`)

// parseListing extracts devices matching the vendor set from plain lsusb output.
func parseListing(output string, vendors map[string]struct{}) []Device {
	var devices []Device
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		match := listingPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		vendor := strings.ToLower(match[3])
		if _, ok := vendors[vendor]; !ok {
			continue
		}
		bus, _ := strconv.Atoi(match[1])
		addr, _ := strconv.Atoi(match[2])
		devices = append(devices, Device{
			VendorID:    vendor,
			ProductID:   strings.ToLower(match[4]),
			Bus:         bus,
			Address:     addr,
			Description: strings.TrimSpace(match[5]),
		})
	}
	return devices
}

var iProductPattern = regexp.MustCompile(`^iProduct\s+\d+\s+(.+)$`)

// parseDescriptorProducts maps "bus:address" to the iProduct string for every
// device block in verbose lsusb output.
func parseDescriptorProducts(output string) map[string]string {
	products := make(map[string]string)
	current := ""
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if match := listingPattern.FindStringSubmatch(line); match != nil {
			bus, _ := strconv.Atoi(match[1])
			addr, _ := strconv.Atoi(match[2])
			current = positionKey(bus, addr)
			continue
		}
		if current == "" {
			continue
		}
		if match := iProductPattern.FindStringSubmatch(line); match != nil {
			products[current] = strings.TrimSpace(match[1])
		}
	}
	return products
}

// ExtractSerial returns the token following "SN:" in a product descriptor
// string, or "" when no serial is present.
func ExtractSerial(product string) string {
	idx := strings.LastIndex(product, "SN:")
	if idx < 0 {
		return ""
	}
	serial := strings.TrimSpace(product[idx+len("SN:"):])
	if cut := strings.IndexFunc(serial, func(r rune) bool { return r == ' ' || r == '\t' }); cut >= 0 {
		serial = serial[:cut]
	}
	return serial
}

func positionKey(bus, address int) string {
	return fmt.Sprintf("%03d:%03d", bus, address)
}
