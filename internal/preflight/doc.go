// Package preflight provides readiness checks for the filesystem paths and
// listeners dropzone depends on.
//
// These checks run in two contexts:
//   - daemon.New calls RunAll and refuses to start when a required check fails.
//   - The CLI "dropzone status" command prints every result so operators can see
//     why a daemon would not start.
//
// The metrics listener is only checked when metrics.bind is configured.
package preflight
