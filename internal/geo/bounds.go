package geo

import (
	"errors"
	"fmt"
	"math"
)

// Bounds is a map viewport. MinLng greater than MaxLng describes a viewport
// that wraps across the antimeridian.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks that the bounds are finite, inside the coordinate ranges and
// that the latitude edges are ordered.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.MinLat, b.MaxLat, b.MinLng, b.MaxLng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("bounds must be finite numbers")
		}
	}
	if !ValidLat(b.MinLat) || !ValidLat(b.MaxLat) {
		return fmt.Errorf("latitude bounds must be within [-90, 90], got %g..%g", b.MinLat, b.MaxLat)
	}
	if !ValidLng(b.MinLng) || !ValidLng(b.MaxLng) {
		return fmt.Errorf("longitude bounds must be within [-180, 180], got %g..%g", b.MinLng, b.MaxLng)
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("minLat %g is greater than maxLat %g", b.MinLat, b.MaxLat)
	}
	return nil
}

// CrossesAntimeridian reports whether the viewport wraps the 180° meridian.
func (b Bounds) CrossesAntimeridian() bool {
	return b.MinLng > b.MaxLng
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p Position) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Lng >= b.MinLng || p.Lng <= b.MaxLng
	}
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
