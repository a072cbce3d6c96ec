// Package daemon coordinates the long-running Shokofin process and its
// integration points.
//
// It wires configuration, the file store, the season resolver, the Shoko
// change feed, and the Jellyfin notifier into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon also serves
// the HTTP API the media server adapter calls to resolve seasons and inspect
// tracked files.
//
// Keep orchestration logic here: parsing, storage, and metadata synthesis
// live in their respective packages while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
