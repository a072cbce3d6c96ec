// Package main hosts the Shokofin CLI entrypoint and command graph.
//
// The Cobra-based command tree runs and stops the daemon, resolves single
// seasons against Shoko Server for inspection, decodes change-feed payloads,
// lists tracked files, reads the daemon log, and scaffolds configuration. It centralizes configuration
// resolution and .env loading so subcommands can focus on output instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
