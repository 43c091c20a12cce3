package testsupport

import (
	"context"
	"testing"

	"dropzone/internal/config"
	"dropzone/internal/kvstore"
)

// MustOpenStore opens the store described by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *kvstore.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := kvstore.Load(context.Background(), cfg.StorePath(), kvstore.Options{
		Backend:          cfg.Store.Backend,
		AutoSave:         cfg.Store.AutoSave,
		AutoSaveDebounce: cfg.AutoSaveDebounce(),
	})
	if err != nil {
		t.Fatalf("kvstore.Load: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

// MustSet stores value under key and fails the test on error.
func MustSet(t testing.TB, store *kvstore.Store, key string, value any) {
	t.Helper()
	if err := store.Set(key, value); err != nil {
		t.Fatalf("store.Set(%q): %v", key, err)
	}
}
