// Package ingest implements the drop ingestion controller.
//
// A drop moves through Filtering (hit test against the live drop region),
// Inspecting (first path only), Merging and Persisting before returning to
// Idle. Merging and persisting run under the single-slot task queue keyed by
// the history key so concurrent drops cannot lose each other's entries. The
// controller owns the in-memory history cache and only replaces it with the
// store's contents after a successful save.
package ingest
