package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"dropzone/internal/fileutil"
)

// jsonBackend stores every entry in one JSON object on disk.
type jsonBackend struct {
	path string
}

func newJSONBackend(path string) *jsonBackend {
	return &jsonBackend{path: path}
}

func (b *jsonBackend) load(context.Context) (map[string]json.RawMessage, error) {
	entries := make(map[string]json.RawMessage)
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", b.path, err)
	}
	for key, value := range entries {
		compacted, err := compact(value)
		if err != nil {
			return nil, fmt.Errorf("normalize %q: %w", key, err)
		}
		entries[key] = compacted
	}
	return entries, nil
}

// save writes the snapshot to a temp file and renames it over the target.
func (b *jsonBackend) save(_ context.Context, entries map[string]json.RawMessage) error {
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(b.path, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

func (b *jsonBackend) close() error { return nil }

func compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
