// Package main hosts the dropzone CLI entrypoint and command graph.
//
// `dropzone serve` runs the daemon in the foreground; `start` and `stop`
// manage a detached one. The remaining commands stand in for the UI shell and
// talk to the daemon over the host bridge socket. `history` and `status`
// read the store directly when no daemon answers.
package main
