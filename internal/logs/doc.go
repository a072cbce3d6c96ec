// Package logs reads the daemon's JSON log file for the CLI.
//
// Tail returns the last N lines or everything after a byte offset and can
// wait for new lines in follow mode. ParseEntry decodes one JSON line into an
// Entry so callers can filter by level or component before rendering.
package logs
