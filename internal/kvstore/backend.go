package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// backend persists full snapshots of the entry map.
type backend interface {
	load(ctx context.Context) (map[string]json.RawMessage, error)
	save(ctx context.Context, entries map[string]json.RawMessage) error
	close() error
}

func openBackend(ctx context.Context, name, path string) (backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendJSON:
		return newJSONBackend(path), nil
	case BackendSQLite:
		return openSQLiteBackend(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
