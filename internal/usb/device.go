package usb

import (
	"fmt"
	"sort"
	"time"
)

// Mode classifies how a device is currently reachable.
type Mode string

const (
	// ModeEDL indicates the device exposes the Qualcomm emergency download interface.
	ModeEDL Mode = "edl"
	// ModeUnknown indicates a matching vendor device in an unrecognized mode.
	ModeUnknown Mode = "unknown"
)

// edlProductID is the product id Qualcomm chipsets expose in download mode.
const edlProductID = "9008"

// Device represents one attached unit of interest.
type Device struct {
	VendorID  string
	ProductID string
	// Serial is the token following "SN:" in the product descriptor. Empty
	// when the descriptor is malformed or unreadable; such devices cannot be
	// targeted by a flash.
	Serial string
	// Bus and Address are positional identifiers from the enumeration output.
	// They are unstable across replug and are used for display only, never for
	// targeting.
	Bus     int
	Address int
	// Description is the trailing free-text portion of the listing line.
	Description string
}

// ID returns the vendor:product identifier pair, e.g. "05c6:9008".
func (d Device) ID() string {
	return d.VendorID + ":" + d.ProductID
}

// Mode derives the device mode from its product id.
func (d Device) Mode() Mode {
	if d.ProductID == edlProductID {
		return ModeEDL
	}
	return ModeUnknown
}

// Targetable reports whether the device can be addressed by an automated flash.
func (d Device) Targetable() bool {
	return d.Serial != ""
}

// Key returns the identity used for snapshot diffing: the serial when present,
// otherwise the vendor:product pair plus bus position.
func (d Device) Key() string {
	if d.Serial != "" {
		return d.Serial
	}
	return fmt.Sprintf("%s@%03d:%03d", d.ID(), d.Bus, d.Address)
}

// Snapshot is an immutable, ordered set of devices as of one poll tick.
type Snapshot struct {
	Devices []Device
	Taken   time.Time
}

// NewSnapshot builds a snapshot with devices in a stable order.
func NewSnapshot(devices []Device, taken time.Time) Snapshot {
	ordered := make([]Device, len(devices))
	copy(ordered, devices)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Bus != ordered[j].Bus {
			return ordered[i].Bus < ordered[j].Bus
		}
		return ordered[i].Address < ordered[j].Address
	})
	return Snapshot{Devices: ordered, Taken: taken}
}

// BySerial returns the device with the given serial, if present.
func (s Snapshot) BySerial(serial string) (Device, bool) {
	if serial == "" {
		return Device{}, false
	}
	for _, dev := range s.Devices {
		if dev.Serial == serial {
			return dev, true
		}
	}
	return Device{}, false
}

// Diff compares two snapshots by device key and returns devices that appeared
// in next and devices that disappeared from prev. Diffing a snapshot against
// itself yields no transitions.
func Diff(prev, next Snapshot) (connected, disconnected []Device) {
	prevKeys := make(map[string]Device, len(prev.Devices))
	for _, dev := range prev.Devices {
		prevKeys[dev.Key()] = dev
	}
	nextKeys := make(map[string]Device, len(next.Devices))
	for _, dev := range next.Devices {
		nextKeys[dev.Key()] = dev
	}

	for _, dev := range next.Devices {
		if _, ok := prevKeys[dev.Key()]; !ok {
			connected = append(connected, dev)
		}
	}
	for _, dev := range prev.Devices {
		if _, ok := nextKeys[dev.Key()]; !ok {
			disconnected = append(disconnected, dev)
		}
	}
	return connected, disconnected
}
