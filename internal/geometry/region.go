// Package geometry decides whether a drop landed inside the target region.
//
// Regions are measured from the live layout at the moment of each drop. Callers
// hold a RegionSource, never a Rect, so a resize or scroll between two drops
// cannot leave stale bounds behind.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrIndeterminate reports that the target region could not be measured.
// Callers must treat it as a drop outside the region.
var ErrIndeterminate = errors.New("drop region indeterminate")

// Point is a pointer position in window coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Valid reports whether the rectangle has finite coordinates and a
// non-negative size.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.Left, r.Top, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.Left, r.Top, r.Width, r.Height)
}

// Contains reports whether p lies inside r. Edges count as inside.
func Contains(p Point, r Rect) bool {
	return p.X >= r.Left &&
		p.X <= r.Left+r.Width &&
		p.Y >= r.Top &&
		p.Y <= r.Top+r.Height
}

// RegionSource measures the target region on demand.
type RegionSource interface {
	Measure() (Rect, error)
}

// RegionFunc adapts a function to RegionSource.
type RegionFunc func() (Rect, error)

// Measure calls f.
func (f RegionFunc) Measure() (Rect, error) { return f() }

// Fixed returns a RegionSource that always reports r.
func Fixed(r Rect) RegionSource {
	return RegionFunc(func() (Rect, error) { return r, nil })
}

// Evaluate measures src and tests p against the result. Any measurement
// failure, or a measured rectangle that is not Valid, yields ErrIndeterminate.
func Evaluate(p Point, src RegionSource) (bool, error) {
	if src == nil {
		return false, ErrIndeterminate
	}
	rect, err := src.Measure()
	if err != nil {
		if errors.Is(err, ErrIndeterminate) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrIndeterminate, err)
	}
	if !rect.Valid() {
		return false, fmt.Errorf("%w: invalid bounds %s", ErrIndeterminate, rect)
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return false, fmt.Errorf("%w: invalid position", ErrIndeterminate)
	}
	return Contains(p, rect), nil
}
