// Package daemonctl talks to a running shokofin daemon from the CLI.
//
// Client wraps the daemon's HTTP API. The process helpers locate the daemon
// through its pid file and stop it with SIGTERM, escalating to SIGKILL when
// the grace period expires.
package daemonctl
