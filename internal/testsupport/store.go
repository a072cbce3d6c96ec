package testsupport

import (
	"testing"

	"shokofin/internal/config"
	"shokofin/internal/filestore"
)

// MustOpenStore opens a filestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *filestore.Store {
	t.Helper()

	store, err := filestore.Open(cfg)
	if err != nil {
		t.Fatalf("filestore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
