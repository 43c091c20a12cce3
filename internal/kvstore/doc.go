// Package kvstore provides the persistent key-value store shared by the
// daemon and the CLI.
//
// A Store holds JSON values keyed by string and persists them through one of
// two backends: a single pretty-printed JSON document replaced atomically on
// every save, or a SQLite database (modernc.org/sqlite) with WAL journaling.
// Stores are process-wide singletons per path: Load returns the already open
// instance when the same file is requested twice. A "<path>.lock" file guarded
// by flock keeps other processes from opening the same store concurrently.
//
// Mutations schedule a debounced auto-save when enabled; Save flushes
// deterministically and Close flushes, releases the lock, and unregisters the
// instance.
package kvstore
