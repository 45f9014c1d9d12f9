// Package tile implements Web Mercator slippy-map tile math.
package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/powderlines/lifttiles/internal/types"
)

// Coords identifies one tile in the XYZ scheme.
type Coords struct {
	Z uint32 // Zoom level
	X uint32 // Tile column (west to east)
	Y uint32 // Tile row (north to south)
}

// NewCoords creates a Coords from zoom, x, y values.
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// String returns the tile coordinate as "z{zoom}_x{x}_y{y}".
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Tile returns the maptile.Tile for this coordinate.
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Bounds returns the geodetic rectangle covered by this tile. The NW corner
// is (MinLon, MaxLat); the SE corner is (MaxLon, MinLat), since tile rows
// grow southward.
func (c Coords) Bounds() types.BoundingBox {
	bound := c.Tile().Bound()
	return types.BoundingBox{
		MinLon: bound.Min.Lon(),
		MinLat: bound.Min.Lat(),
		MaxLon: bound.Max.Lon(),
		MaxLat: bound.Max.Lat(),
	}
}

// At returns the tile containing the given geodetic point. Latitude is
// clamped to the Mercator range and longitude to [-180, 180] first; the
// projection is undefined outside it and unclamped input would yield an
// unbounded row.
func At(lon, lat float64, zoom int) Coords {
	lon = clamp(lon, -180, 180)
	lat = clamp(lat, -types.MaxMercatorLat, types.MaxMercatorLat)

	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))

	max := maxIndex(zoom)
	return Coords{
		Z: uint32(zoom),
		X: minUint32(t.X, max),
		Y: minUint32(t.Y, max),
	}
}

// Range is the inclusive set of tiles to materialize at one zoom level.
type Range struct {
	Zoom       int
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// RangeForBounds computes the tile range covering a bounding box at the
// given zoom. Column bounds come from the west/east edges; row bounds come
// from the north/south edges (row min at the northern edge, since rows grow
// southward). Indices are clamped to [0, 2^zoom - 1]. ok is false when the
// range is empty after clamping; an empty range is not an error.
func RangeForBounds(b types.BoundingBox, zoom int) (Range, bool) {
	nw := At(b.MinLon, b.MaxLat, zoom)
	se := At(b.MaxLon, b.MinLat, zoom)

	r := Range{
		Zoom: zoom,
		MinX: nw.X,
		MaxX: se.X,
		MinY: nw.Y,
		MaxY: se.Y,
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return Range{Zoom: zoom}, false
	}
	return r, true
}

// ForEach calls fn for every tile in the range, column-major.
func (r Range) ForEach(fn func(Coords)) {
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			fn(NewCoords(uint32(r.Zoom), x, y))
		}
	}
}

// Count returns the number of tiles in the range.
func (r Range) Count() int {
	return int(r.MaxX-r.MinX+1) * int(r.MaxY-r.MinY+1)
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("z%d x[%d-%d] y[%d-%d]", r.Zoom, r.MinX, r.MaxX, r.MinY, r.MaxY)
}

func maxIndex(zoom int) uint32 {
	return uint32(math.Pow(2, float64(zoom))) - 1
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
