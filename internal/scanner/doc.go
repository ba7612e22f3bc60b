// Package scanner polls the USB bus for Qualcomm devices and turns snapshot
// differences into connect and disconnect events.
//
// Events for a poll are delivered to subscribers before the shared snapshot
// is swapped, so an event consumer that immediately reads the store never
// observes a snapshot newer than the event it is handling. A failed poll
// keeps the previous snapshot in place.
package scanner
