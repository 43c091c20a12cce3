package kvstore

import "errors"

var (
	// ErrClosed is returned by operations on a store that has been closed.
	ErrClosed = errors.New("store is closed")
	// ErrLocked is returned by Load when another process owns the store file.
	ErrLocked = errors.New("store is locked by another process")
	// ErrSchemaMismatch indicates a SQLite store written by an incompatible version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrUnknownBackend is returned for backend names other than json and sqlite.
	ErrUnknownBackend = errors.New("unknown store backend")
)
