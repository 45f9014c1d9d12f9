package types

import (
	"errors"
	"fmt"
	"math"
)

// MaxMercatorLat is the latitude limit of the Web Mercator projection.
// Vertices beyond it cannot be projected and are excluded from bounds
// computation.
const MaxMercatorLat = 85.05112878

// ErrNoVertices is returned when a feature collection contains no usable
// vertex. Callers should treat it as "nothing to generate", not as a crash.
var ErrNoVertices = errors.New("feature collection contains no usable vertices")

// BoundingBox is a geographic rectangle in WGS84 (EPSG:4326).
type BoundingBox struct {
	MinLon float64 // Western edge (degrees)
	MinLat float64 // Southern edge (degrees)
	MaxLon float64 // Eastern edge (degrees)
	MaxLat float64 // Northern edge (degrees)
}

// String returns a human-readable representation of the bounding box.
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(%.6f,%.6f,%.6f,%.6f)", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Width returns the width of the box in degrees.
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// Height returns the height of the box in degrees.
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Expand grows the box by margin degrees on every side.
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		MinLon: b.MinLon - margin,
		MinLat: b.MinLat - margin,
		MaxLon: b.MaxLon + margin,
		MaxLat: b.MaxLat + margin,
	}
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// BoundsOf scans all feature vertices once and returns the minimal enclosing
// geodetic rectangle. Non-finite vertices and vertices outside the Mercator
// latitude range are skipped. Returns ErrNoVertices if nothing remains.
func BoundsOf(features []Feature) (BoundingBox, error) {
	b := BoundingBox{
		MinLon: math.Inf(1),
		MinLat: math.Inf(1),
		MaxLon: math.Inf(-1),
		MaxLat: math.Inf(-1),
	}

	found := false
	for _, f := range features {
		for _, pt := range f.Geometry {
			lon, lat := pt[0], pt[1]
			if !isFinite(lon) || !isFinite(lat) {
				continue
			}
			if math.Abs(lat) >= MaxMercatorLat {
				continue
			}
			found = true
			b.MinLon = math.Min(b.MinLon, lon)
			b.MinLat = math.Min(b.MinLat, lat)
			b.MaxLon = math.Max(b.MaxLon, lon)
			b.MaxLat = math.Max(b.MaxLat, lat)
		}
	}

	if !found {
		return BoundingBox{}, ErrNoVertices
	}
	return b, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
