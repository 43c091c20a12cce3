// Package inspect turns a filesystem path into a FileDescriptor.
//
// It is the file inspection service behind the handle_dropfile bridge command:
// stat the entry, classify it by extension, and run a light per-kind analysis
// (line and character counts for text, entry counts for directories). Failures
// carry a Kind so callers can tell a missing file from a permission problem.
package inspect
