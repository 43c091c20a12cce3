package history

import "dropzone/internal/inspect"

// Key is the store key holding the persisted history array.
const Key = "history-files"

// Merge returns a new list with incoming at the front followed by existing,
// keeping only the first occurrence of each path. existing is not modified.
func Merge(existing []inspect.FileDescriptor, incoming inspect.FileDescriptor) []inspect.FileDescriptor {
	merged := make([]inspect.FileDescriptor, 0, len(existing)+1)
	seen := make(map[string]struct{}, len(existing)+1)

	merged = append(merged, incoming)
	seen[incoming.Path] = struct{}{}
	for _, entry := range existing {
		if _, dup := seen[entry.Path]; dup {
			continue
		}
		seen[entry.Path] = struct{}{}
		merged = append(merged, entry)
	}
	return merged
}
