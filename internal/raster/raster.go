// Package raster renders lift polylines into per-tile canvases.
package raster

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/vector"

	"github.com/powderlines/lifttiles/internal/style"
	"github.com/powderlines/lifttiles/internal/tile"
	"github.com/powderlines/lifttiles/internal/types"
)

// DefaultMargin is the geodetic inclusion margin in degrees. Vertices within
// this distance outside the strict tile rectangle are still drawn, so lines
// whose endpoints sit just past a tile edge do not break visibly at the seam.
// It is a tuning constant, deliberately over-inclusive, and configurable.
const DefaultMargin = 0.01

// discSegments controls how finely round joins and caps are approximated.
const discSegments = 16

// Renderer rasterizes lift features for a single tile.
type Renderer struct {
	coords   tile.Coords
	styles   style.Table
	logger   *slog.Logger
	tileSize int
	margin   float64
}

// NewRenderer creates a renderer for one tile coordinate.
func NewRenderer(coords tile.Coords, tileSize int, margin float64, styles style.Table, logger *slog.Logger) *Renderer {
	return &Renderer{
		coords:   coords,
		tileSize: tileSize,
		margin:   margin,
		styles:   styles,
		logger:   logger,
	}
}

// RenderTile draws every surviving feature into a fresh transparent canvas.
// Features are drawn in input order; later features paint over earlier ones.
// A feature survives when at least two of its vertices fall within the
// margin-expanded tile bounds. Features with non-finite coordinates are
// dropped with a warning and never abort the tile.
func (r *Renderer) RenderTile(features []types.Feature) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, r.tileSize, r.tileSize))

	bounds := r.coords.Bounds()
	lonSpan := bounds.MaxLon - bounds.MinLon
	latSpan := bounds.MinLat - bounds.MaxLat // negative: pixel rows grow southward
	if lonSpan == 0 || latSpan == 0 {
		// Degenerate tile extent at extreme zoom; nothing can be projected.
		return canvas
	}

	clip := bounds.Expand(r.margin)
	width := r.styles.WidthFor(int(r.coords.Z))

	for i := range features {
		f := &features[i]
		if !finiteGeometry(f) {
			r.log().Warn("Dropping feature with non-finite coordinates",
				"feature", f.ID, "tile", r.coords.String())
			continue
		}

		pts := r.clipAndProject(f, clip, bounds, lonSpan, latSpan)
		if len(pts) < 2 {
			// A single surviving point cannot form a line.
			continue
		}

		r.strokePolyline(canvas, pts, r.styles.ColorFor(f.Type), width)
	}

	return canvas
}

type point struct {
	x, y float64
}

// clipAndProject builds the candidate pixel list for one feature: vertices
// inside the margin-expanded tile bounds, projected into tile pixel space,
// original order preserved.
func (r *Renderer) clipAndProject(f *types.Feature, clip, bounds types.BoundingBox, lonSpan, latSpan float64) []point {
	pts := make([]point, 0, len(f.Geometry))
	for _, v := range f.Geometry {
		lon, lat := v[0], v[1]
		if !clip.Contains(lon, lat) {
			continue
		}
		pts = append(pts, point{
			x: (lon - bounds.MinLon) / lonSpan * float64(r.tileSize),
			y: (lat - bounds.MaxLat) / latSpan * float64(r.tileSize),
		})
	}
	return pts
}

// strokePolyline draws a connected line through pts. Each segment becomes a
// quad of the stroke width and each vertex a disc, all filled in a single
// rasterizer pass so overlaps do not double-blend.
func (r *Renderer) strokePolyline(dst *image.NRGBA, pts []point, c color.NRGBA, width int) {
	ras := vector.NewRasterizer(r.tileSize, r.tileSize)
	radius := float64(width) / 2.0

	for i := 0; i < len(pts)-1; i++ {
		addSegmentQuad(ras, pts[i], pts[i+1], radius)
	}
	for _, p := range pts {
		addDisc(ras, p, radius)
	}

	ras.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// addSegmentQuad appends the rectangle covering one stroked segment. The
// vertex order keeps every subpath in the same winding direction as addDisc,
// so the nonzero fill rule never cancels overlapping coverage.
func addSegmentQuad(ras *vector.Rasterizer, a, b point, radius float64) {
	dx := b.x - a.x
	dy := b.y - a.y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return // the disc at the shared vertex already covers this
	}

	// Unit normal scaled to the stroke radius.
	nx := -dy / length * radius
	ny := dx / length * radius

	ras.MoveTo(float32(a.x+nx), float32(a.y+ny))
	ras.LineTo(float32(b.x+nx), float32(b.y+ny))
	ras.LineTo(float32(b.x-nx), float32(b.y-ny))
	ras.LineTo(float32(a.x-nx), float32(a.y-ny))
	ras.ClosePath()
}

// addDisc appends a polygonal disc for a round join or cap.
func addDisc(ras *vector.Rasterizer, center point, radius float64) {
	for i := 0; i <= discSegments; i++ {
		// Decreasing angle matches the segment quad winding.
		theta := -2 * math.Pi * float64(i) / discSegments
		x := float32(center.x + radius*math.Cos(theta))
		y := float32(center.y + radius*math.Sin(theta))
		if i == 0 {
			ras.MoveTo(x, y)
		} else {
			ras.LineTo(x, y)
		}
	}
	ras.ClosePath()
}

func finiteGeometry(f *types.Feature) bool {
	for _, v := range f.Geometry {
		if math.IsNaN(v[0]) || math.IsInf(v[0], 0) || math.IsNaN(v[1]) || math.IsInf(v[1], 0) {
			return false
		}
	}
	return true
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
