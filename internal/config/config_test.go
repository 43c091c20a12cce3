package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dropzone/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "dropzone")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.StorePath() != filepath.Join(wantData, "store.json") {
		t.Fatalf("unexpected store path: %q", cfg.StorePath())
	}
	if cfg.SocketPath() != filepath.Join(wantData, "dropzone.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if cfg.Store.Backend != config.BackendJSON {
		t.Fatalf("expected json backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.AutoSaveDebounce() != 100*time.Millisecond {
		t.Fatalf("expected 100ms debounce, got %s", cfg.AutoSaveDebounce())
	}
	if cfg.Drop.TargetElement != "drop-area" {
		t.Fatalf("unexpected target element: %q", cfg.Drop.TargetElement)
	}
	if cfg.Metrics.Bind != "" {
		t.Fatalf("expected metrics disabled by default, got %q", cfg.Metrics.Bind)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dropzone.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Store struct {
			File     string `toml:"file"`
			Backend  string `toml:"backend"`
			AutoSave bool   `toml:"auto_save"`
		} `toml:"store"`
		Drop struct {
			TargetElement string `toml:"target_element"`
		} `toml:"drop"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Store.File = "history.db"
	custom.Store.Backend = "SQLite"
	custom.Drop.TargetElement = "files-panel"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Store.Backend != config.BackendSQLite {
		t.Fatalf("expected backend normalized to sqlite, got %q", cfg.Store.Backend)
	}
	if cfg.StorePath() != filepath.Join(tempDir, "data", "history.db") {
		t.Fatalf("unexpected store path: %q", cfg.StorePath())
	}
	if cfg.AutoSaveDebounce() != 0 {
		t.Fatalf("expected auto-save disabled, got %s", cfg.AutoSaveDebounce())
	}
	if cfg.Drop.TargetElement != "files-panel" {
		t.Fatalf("unexpected target element: %q", cfg.Drop.TargetElement)
	}
}

func TestDataDirEnvFallback(t *testing.T) {
	tempDir := t.TempDir()
	envDir := filepath.Join(tempDir, "from-env")
	t.Setenv("DROPZONE_DATA_DIR", envDir)

	missing := filepath.Join(tempDir, "absent.toml")
	cfg, _, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if cfg.Paths.DataDir != envDir {
		t.Fatalf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}

	fileDir := filepath.Join(tempDir, "from-file")
	configPath := filepath.Join(tempDir, "dropzone.toml")
	content := "[paths]\ndata_dir = \"" + filepath.ToSlash(fileDir) + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != fileDir {
		t.Fatalf("expected file value to win over env, got %q", cfg.Paths.DataDir)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "target_element") {
		t.Fatalf("sample config missing drop section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Store.File != "store.json" {
		t.Fatalf("expected sample store file store.json, got %q", cfg.Store.File)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "redis" }},
		{"empty store file", func(c *config.Config) { c.Store.File = "" }},
		{"zero debounce", func(c *config.Config) { c.Store.AutoSaveDebounceMS = 0 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Store.AutoSave = false
	cfg.Store.AutoSaveDebounceMS = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected zero debounce to be fine without auto-save: %v", err)
	}
}
