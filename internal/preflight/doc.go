// Package preflight provides readiness checks for external services
// and filesystem paths that Shokofin depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "shokofin status" command renders the same results as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
