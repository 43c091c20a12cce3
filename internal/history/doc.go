// Package history maintains the ordered, de-duplicated list of file
// descriptors persisted under Key.
//
// Merge is the pure merge rule: the incoming descriptor goes first and only the
// first occurrence of each path survives. Bootstrap prepares the store at
// startup, and Repository adapts a key-value store so that a failed save never
// leaves an unsaved history behind in memory.
package history
