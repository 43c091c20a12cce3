// Package bridge is the host bridge between the UI shell and the daemon:
// JSON-RPC over a Unix domain socket plus the matching client used by the CLI.
//
// Pipeline failures (inspection errors, store errors) travel as structured
// Failure values inside successful responses so the UI can render them; only
// transport and decoding problems surface as RPC errors.
package bridge
