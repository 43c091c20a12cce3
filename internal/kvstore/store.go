package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"dropzone/internal/logging"
)

// DefaultAutoSaveDebounce is the delay between the last mutation and the
// automatic save when Options.AutoSaveDebounce is zero.
const DefaultAutoSaveDebounce = 100 * time.Millisecond

// Options controls how a store is opened.
type Options struct {
	Backend          string
	AutoSave         bool
	AutoSaveDebounce time.Duration
	Logger           *slog.Logger
}

// Store is a persistent map of JSON values.
type Store struct {
	path        string
	lockPath    string
	backendName string
	backend     backend
	lock        *flock.Flock
	logger      *slog.Logger
	debounce    time.Duration

	mu      sync.Mutex
	entries map[string]json.RawMessage
	timer   *time.Timer
	closed  bool

	saveMu   sync.Mutex
	released bool
}

var registry = struct {
	mu     sync.Mutex
	stores map[string]*Store
}{stores: make(map[string]*Store)}

// Load opens the store at path, or returns the instance already open in this
// process for the same path. Options are ignored for an existing instance.
func Load(ctx context.Context, path string, opts Options) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if path == "" {
		return nil, errors.New("store path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if existing, ok := registry.stores[abs]; ok {
		return existing, nil
	}

	name := opts.Backend
	if name == "" {
		name = BackendJSON
	}
	if name != BackendJSON && name != BackendSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	lockPath := abs + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}

	b, err := openBackend(ctx, name, abs)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	entries, err := b.load(ctx)
	if err != nil {
		_ = b.close()
		_ = lock.Unlock()
		return nil, err
	}

	debounce := time.Duration(0)
	if opts.AutoSave {
		debounce = opts.AutoSaveDebounce
		if debounce <= 0 {
			debounce = DefaultAutoSaveDebounce
		}
	}

	s := &Store{
		path:        abs,
		lockPath:    lockPath,
		backendName: name,
		backend:     b,
		lock:        lock,
		logger:      logging.NewComponentLogger(opts.Logger, "kvstore"),
		debounce:    debounce,
		entries:     entries,
	}
	registry.stores[abs] = s
	s.logger.Debug("store opened",
		logging.String(logging.FieldPath, abs),
		logging.String("backend", name),
		logging.Int("entry_count", len(entries)),
		logging.Bool("auto_save", debounce > 0))
	return s, nil
}

// Path returns the absolute location of the store file.
func (s *Store) Path() string { return s.path }

// LockPath returns the location of the single-owner lock file.
func (s *Store) LockPath() string { return s.lockPath }

// Backend returns the backend name, json or sqlite.
func (s *Store) Backend() string { return s.backendName }

// Get returns the compacted JSON stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	raw, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(raw), true
}

// GetInto decodes the value under key into dst. It reports false without
// error when the key is absent.
func (s *Store) GetInto(key string, dst any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores the JSON encoding of value under key.
func (s *Store) Set(key string, value any) error {
	if key == "" {
		return errors.New("key is required")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	raw, err := compact(encoded)
	if err != nil {
		return fmt.Errorf("normalize %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = raw
	s.scheduleLocked()
	return nil
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.scheduleLocked()
	return true
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok && !s.closed
}

// Keys returns the stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return slices.Sorted(maps.Keys(s.entries))
}

// Save writes the current contents to durable storage.
func (s *Store) Save(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.released {
		return ErrClosed
	}
	return s.persistLocked(ctx)
}

// Close flushes the store, releases the lock and unregisters the instance so
// a later Load reopens it from disk. Closing twice is a no-op.
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.saveMu.Lock()
	if s.released {
		s.saveMu.Unlock()
		return nil
	}
	saveErr := s.persistLocked(ctx)
	closeErr := s.backend.close()
	s.released = true
	s.saveMu.Unlock()

	var unlockErr error
	if err := s.lock.Unlock(); err != nil {
		unlockErr = fmt.Errorf("release store lock: %w", err)
	}

	registry.mu.Lock()
	if registry.stores[s.path] == s {
		delete(registry.stores, s.path)
	}
	registry.mu.Unlock()

	s.logger.Debug("store closed", logging.String(logging.FieldPath, s.path))
	return errors.Join(saveErr, closeErr, unlockErr)
}

// persistLocked requires saveMu.
func (s *Store) persistLocked(ctx context.Context) error {
	s.mu.Lock()
	snapshot := maps.Clone(s.entries)
	s.mu.Unlock()
	if err := s.backend.save(ctx, snapshot); err != nil {
		return fmt.Errorf("save store %s: %w", s.path, err)
	}
	return nil
}

// scheduleLocked requires mu.
func (s *Store) scheduleLocked() {
	if s.debounce <= 0 {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.autoSave)
		return
	}
	s.timer.Reset(s.debounce)
}

func (s *Store) autoSave() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.released {
		return
	}
	if err := s.persistLocked(context.Background()); err != nil {
		logging.WarnWithContext(s.logger, "auto-save failed", "store_autosave_failed",
			logging.String(logging.FieldPath, s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the data directory"),
			logging.String(logging.FieldImpact, "recent changes are held in memory until the next save"))
		return
	}
	s.logger.Debug("auto-save complete", logging.String(logging.FieldPath, s.path))
}
