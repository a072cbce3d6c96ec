// Package fileevents decodes Shoko file change notifications.
//
// A notification names a file by id, its import folder, and a catalog
// relative path using forward slashes. Episode links arrive under either the
// current CrossReferences key or the legacy CrossRefs key; both are folded
// into one canonical list.
package fileevents
