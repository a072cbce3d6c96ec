// Package filestore persists the files announced by the Shoko change feed
// and the episodes each one is linked to.
//
// The store is a SQLite database in the state directory. Every decoded
// notification is applied in its own transaction, so a crash never leaves a
// file with half of its cross-references. A notification that carries no
// reference data leaves the stored links untouched.
package filestore
