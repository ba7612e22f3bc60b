// Package adb integrates with the Android Debug Bridge to correlate booted
// devices with their EDL serials and to request a reboot into download mode.
//
// The integration is optional: when adb is disabled or the binary is missing,
// the rest of the system operates purely on EDL enumeration.
package adb
