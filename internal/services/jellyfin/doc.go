// Package jellyfin tells a Jellyfin server which library paths changed after
// a Shoko file notification.
//
// Import folder paths are mapped to host paths through the configured import
// folder table. When the integration is disabled the notifier is a no-op so
// callers never need to branch on configuration.
package jellyfin
