package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dropzone/internal/inspect"
)

var (
	// ErrStoreRead reports a history value that could not be read or decoded.
	ErrStoreRead = errors.New("history store read failed")
	// ErrStoreWrite reports a history value that could not be written or saved.
	ErrStoreWrite = errors.New("history store write failed")
)

// Store is the subset of the key-value store the history needs.
type Store interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, value any) error
	Delete(key string) bool
	Save(ctx context.Context) error
}

// Bootstrap initializes Key to an empty array when it is absent or not an
// array, then saves. It reports whether the value was (re)initialized.
func Bootstrap(ctx context.Context, store Store) (bool, error) {
	if store == nil {
		return false, errors.New("history bootstrap requires a store")
	}
	if raw, ok := store.Get(Key); ok && isArray(raw) {
		return false, nil
	}
	if err := store.Set(Key, []inspect.FileDescriptor{}); err != nil {
		return false, fmt.Errorf("%w: initialize %s: %w", ErrStoreWrite, Key, err)
	}
	if err := store.Save(ctx); err != nil {
		return false, fmt.Errorf("%w: save initialized %s: %w", ErrStoreWrite, Key, err)
	}
	return true, nil
}

// Repository reads and replaces the persisted history list.
type Repository struct {
	store Store
}

// NewRepository wraps store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// List returns the persisted history. An absent key yields an empty list.
func (r *Repository) List() ([]inspect.FileDescriptor, error) {
	raw, ok := r.store.Get(Key)
	if !ok {
		return []inspect.FileDescriptor{}, nil
	}
	if !isArray(raw) {
		return nil, fmt.Errorf("%w: %s is not an array", ErrStoreRead, Key)
	}
	var list []inspect.FileDescriptor
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStoreRead, Key, err)
	}
	if list == nil {
		list = []inspect.FileDescriptor{}
	}
	return list, nil
}

// Replace writes list under Key and saves. When the save fails the previous
// value is restored in memory.
func (r *Repository) Replace(ctx context.Context, list []inspect.FileDescriptor) error {
	if list == nil {
		list = []inspect.FileDescriptor{}
	}
	previous, hadPrevious := r.store.Get(Key)

	if err := r.store.Set(Key, list); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStoreWrite, Key, err)
	}
	if err := r.store.Save(ctx); err != nil {
		r.restore(previous, hadPrevious)
		return fmt.Errorf("%w: save %s: %w", ErrStoreWrite, Key, err)
	}
	return nil
}

func (r *Repository) restore(previous json.RawMessage, hadPrevious bool) {
	if !hadPrevious {
		r.store.Delete(Key)
		return
	}
	_ = r.store.Set(Key, previous)
}

func isArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
