// Package history persists finished flash jobs to a SQLite database so past
// attempts survive daemon restarts. Each record carries the job outcome plus
// a bounded tail of the process log.
package history
