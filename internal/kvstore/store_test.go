package kvstore_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"dropzone/internal/kvstore"
)

func openStore(t *testing.T, path string, opts kvstore.Options) *kvstore.Store {
	t.Helper()
	store, err := kvstore.Load(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestJSONStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	store := openStore(t, path, kvstore.Options{})

	if err := store.Set("greeting", map[string]any{"text": "hi", "n": 2}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("list", []int{1, 2, 3}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"greeting\"") {
		t.Fatalf("expected pretty-printed object, got %s", data)
	}

	reopened := openStore(t, path, kvstore.Options{})
	if reopened == store {
		t.Fatal("expected a fresh instance after close")
	}
	var list []int
	ok, err := reopened.GetInto("list", &list)
	if err != nil || !ok {
		t.Fatalf("GetInto list: ok=%v err=%v", ok, err)
	}
	if len(list) != 3 || list[2] != 3 {
		t.Fatalf("unexpected list: %v", list)
	}
	if got := reopened.Keys(); len(got) != 2 || got[0] != "greeting" || got[1] != "list" {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestSetStoresCompactedValues(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "store.json"), kvstore.Options{})

	if err := store.Set("raw", json.RawMessage("{ \"a\" :  1,\n \"b\": [ true ] }")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, ok := store.Get("raw")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(raw) != `{"a":1,"b":[true]}` {
		t.Fatalf("expected compacted value, got %s", raw)
	}

	raw[0] = 'X'
	again, _ := store.Get("raw")
	if string(again) != `{"a":1,"b":[true]}` {
		t.Fatalf("Get must return a copy, store now holds %s", again)
	}
}

func TestDeleteAndHas(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "store.json"), kvstore.Options{})

	if store.Delete("missing") {
		t.Fatal("expected Delete of missing key to report false")
	}
	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !store.Has("k") {
		t.Fatal("expected Has to report true")
	}
	if !store.Delete("k") {
		t.Fatal("expected Delete to report true")
	}
	if store.Has("k") {
		t.Fatal("expected key to be gone")
	}
	if ok, err := store.GetInto("k", new(string)); ok || err != nil {
		t.Fatalf("GetInto on absent key: ok=%v err=%v", ok, err)
	}
}

func TestLoadReturnsExistingInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	first := openStore(t, path, kvstore.Options{})
	second, err := kvstore.Load(context.Background(), path, kvstore.Options{Backend: kvstore.BackendSQLite})
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Fatal("expected the already loaded instance")
	}
	if second.Backend() != kvstore.BackendJSON {
		t.Fatalf("options must be ignored for existing instance, got backend %q", second.Backend())
	}
}

func TestLoadFailsWhenLockedByAnotherOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	other := flock.New(path + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock failed: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = other.Unlock() })

	_, err = kvstore.Load(context.Background(), path, kvstore.Options{})
	if !errors.Is(err, kvstore.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	ctx := context.Background()
	store, err := kvstore.Load(ctx, filepath.Join(t.TempDir(), "store.json"), kvstore.Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
	if err := store.Set("k", 1); !errors.Is(err, kvstore.ErrClosed) {
		t.Fatalf("expected ErrClosed from Set, got %v", err)
	}
	if err := store.Save(ctx); !errors.Is(err, kvstore.ErrClosed) {
		t.Fatalf("expected ErrClosed from Save, got %v", err)
	}
	if _, ok := store.Get("k"); ok {
		t.Fatal("expected Get on closed store to miss")
	}
}

func TestAutoSaveWritesAfterDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store := openStore(t, path, kvstore.Options{AutoSave: true, AutoSaveDebounce: 20 * time.Millisecond})

	if err := store.Set("first", 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("second", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		data, err := os.ReadFile(path)
		if err == nil && strings.Contains(string(data), "second") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("auto-save did not persist within deadline (last read err=%v)", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := kvstore.Load(ctx, path, kvstore.Options{AutoSave: true, AutoSaveDebounce: time.Hour})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Set("pending", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	if !strings.Contains(string(data), "pending") {
		t.Fatalf("expected flushed entry, got %s", data)
	}
}

func TestLoadRejectsCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt store: %v", err)
	}
	if _, err := kvstore.Load(context.Background(), path, kvstore.Options{}); err == nil {
		t.Fatal("expected parse error")
	}
	// A failed load must release the lock for the next attempt.
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("rewrite store: %v", err)
	}
	openStore(t, path, kvstore.Options{})
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := kvstore.Load(context.Background(), filepath.Join(t.TempDir(), "s"), kvstore.Options{Backend: "redis"})
	if !errors.Is(err, kvstore.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	store := openStore(t, path, kvstore.Options{Backend: kvstore.BackendSQLite})

	if err := store.Set("a", "alpha"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("b", []string{"x"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Delete("b")
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openStore(t, path, kvstore.Options{Backend: kvstore.BackendSQLite})
	var got string
	if ok, err := reopened.GetInto("a", &got); !ok || err != nil || got != "alpha" {
		t.Fatalf("unexpected value: %q ok=%v err=%v", got, ok, err)
	}
	if reopened.Has("b") {
		t.Fatal("expected deleted key to stay deleted after close")
	}
}

func TestSQLiteSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := kvstore.Load(ctx, path, kvstore.Options{Backend: kvstore.BackendSQLite})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := kvstore.Load(ctx, path, kvstore.Options{Backend: kvstore.BackendSQLite}); !errors.Is(err, kvstore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
