// Package services defines shared utilities consumed by the metadata
// providers, the change feed, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp series identifiers, season numbers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers decide
//     whether a failure is an expected lookup miss or an unexpected fault.
//
// Use these helpers when wiring new provider logic so operational behaviour
// (error classification, observability) stays uniform across the plugin.
package services
