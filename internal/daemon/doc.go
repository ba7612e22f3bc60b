// Package daemon wires the scanner, flash supervisor, shared state, and
// history store into a single background service with single-instance
// enforcement via a lock file.
package daemon
