// Package style maps lift types and zoom levels to draw colors and widths.
package style

import (
	"image/color"
)

// WidthStep gives the line width used up to and including MaxZoom.
type WidthStep struct {
	MaxZoom int
	Width   int
}

// Table is an immutable style lookup. Colors maps lift types to draw colors;
// Fallback covers every type not in the table, so resolution is total and
// never fails. Widths must be ordered by ascending MaxZoom; FinalWidth
// applies beyond the last step.
type Table struct {
	Colors     map[string]color.NRGBA
	Fallback   color.NRGBA
	Widths     []WidthStep
	FinalWidth int
}

// Default returns the stock lift styling: gondolas and cable cars red,
// chair lifts blue, surface lifts green, magic carpets purple, anything
// else neutral gray.
func Default() Table {
	red := color.NRGBA{R: 0xFF, A: 0xFF}
	blue := color.NRGBA{G: 0x66, B: 0xFF, A: 0xFF}
	green := color.NRGBA{G: 0xCC, A: 0xFF}
	purple := color.NRGBA{R: 0x99, G: 0x33, B: 0xFF, A: 0xFF}

	return Table{
		Colors: map[string]color.NRGBA{
			"gondola":      red,
			"cable_car":    red,
			"chair_lift":   blue,
			"drag_lift":    green,
			"t-bar":        green,
			"j-bar":        green,
			"platter":      green,
			"rope_tow":     green,
			"magic_carpet": purple,
		},
		Fallback: color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF},
		Widths: []WidthStep{
			{MaxZoom: 11, Width: 1},
			{MaxZoom: 13, Width: 2},
			{MaxZoom: 15, Width: 3},
		},
		FinalWidth: 4,
	}
}

// ColorFor resolves the draw color for a lift type.
func (t Table) ColorFor(liftType string) color.NRGBA {
	if c, ok := t.Colors[liftType]; ok {
		return c
	}
	return t.Fallback
}

// WidthFor resolves the line width in pixels for a zoom level. The steps
// form a non-decreasing function of zoom: coarser zooms draw thinner lines.
func (t Table) WidthFor(zoom int) int {
	for _, step := range t.Widths {
		if zoom <= step.MaxZoom {
			return step.Width
		}
	}
	return t.FinalWidth
}
