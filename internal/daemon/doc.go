// Package daemon coordinates the long-running dropzone process.
//
// New performs the single bootstrap path: preflight checks, opening the
// persistent store (which also takes the single-owner lock), initializing the
// history key, and wiring the ingestion controller with the live layout
// registry and metrics. The daemon then exposes drop handling, inspection,
// layout updates and status to the host bridge, plus an optional HTTP endpoint
// for metrics and read-only JSON views.
package daemon
