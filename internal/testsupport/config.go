package testsupport

import (
	"path/filepath"
	"testing"

	"shokofin/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Shoko.APIKey = "test"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithShokoURL points the config at a test Shoko server.
func WithShokoURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Shoko.URL = url
	}
}

// WithJellyfin enables Jellyfin notifications against the given server.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jellyfin.Enabled = true
		b.cfg.Jellyfin.URL = url
		b.cfg.Jellyfin.APIKey = apiKey
	}
}

// WithImportFolder maps an import folder to a directory under the test root.
func WithImportFolder(id int, name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ImportFolders = append(b.cfg.ImportFolders, config.ImportFolder{
			ID:   id,
			Path: filepath.Join(b.baseDir, name),
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
