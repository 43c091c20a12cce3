package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dropzone/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Auto-save is disabled so tests flush explicitly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = shortSocketPath(t)
	cfgVal.Store.AutoSave = false
	cfgVal.Metrics.Bind = ""

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

// WithBackend selects the store backend on the test config.
func WithBackend(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = name
		if name == config.BackendSQLite {
			b.cfg.Store.File = "store.db"
		}
	}
}

// WithAutoSave enables debounced auto-save with the given delay in milliseconds.
func WithAutoSave(debounceMS int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.AutoSave = true
		b.cfg.Store.AutoSaveDebounceMS = debounceMS
	}
}

// WithTargetElement overrides the drop target element name.
func WithTargetElement(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Drop.TargetElement = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// shortSocketPath keeps unix socket paths under the sun_path limit, which
// nested t.TempDir paths can exceed.
func shortSocketPath(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dz")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "dropzone.sock")
}
