// Package state holds the daemon's shared mutable state: the most recent
// device snapshot, the health of the scan loop, and a summary of the current
// flash job.
//
// All access goes through Store, which guards its fields with a single lock
// and keeps critical sections to plain reads and writes. Readers get copies;
// nothing escapes the lock by reference.
package state
