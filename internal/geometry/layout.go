package geometry

import (
	"fmt"
	"sort"
	"sync"
)

// Layout holds the most recently reported bounds of named UI elements. The
// UI shell reports bounds whenever they change; drop handling reads them at
// drop time through Region.
type Layout struct {
	mu       sync.RWMutex
	elements map[string]Rect
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{elements: make(map[string]Rect)}
}

// Report records the current bounds of element.
func (l *Layout) Report(element string, r Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.elements[element] = r
}

// Remove forgets element, e.g. when it is unmounted.
func (l *Layout) Remove(element string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.elements, element)
}

// Bounds returns the reported bounds of element.
func (l *Layout) Bounds(element string) (Rect, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.elements[element]
	return r, ok
}

// Elements lists the reported element names in sorted order.
func (l *Layout) Elements() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.elements))
	for name := range l.elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Region returns a RegionSource that looks element up on every Measure.
func (l *Layout) Region(element string) RegionSource {
	return RegionFunc(func() (Rect, error) {
		r, ok := l.Bounds(element)
		if !ok {
			return Rect{}, fmt.Errorf("%w: element %q not in layout", ErrIndeterminate, element)
		}
		return r, nil
	})
}
