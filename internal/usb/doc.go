// Package usb enumerates attached USB devices through the external lsusb tool
// and models them for the rest of the system.
//
// The Lister shells out twice per poll: once for the plain device listing and
// once per vendor:product pair for the verbose descriptor dump, from which the
// EDL serial is extracted as the token following "SN:" in the product string.
// Devices matching the configured vendor set are returned even when no serial
// can be extracted; such devices are listed but cannot be targeted by a flash.
//
// Snapshot holds one poll's worth of devices and supports diffing against the
// previous poll to produce connect/disconnect transitions.
package usb
