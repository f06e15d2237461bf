// Package layout maps logical grid positions to absolute pixel rectangles on
// the infinite canvas.
//
// The grid is uniform, not packed: every cell has the platform's fixed
// dimensions and screens are placed at
//
//	x = col * (cellWidth + gapX)
//	y = row * (cellHeight + gapY)
//
// Coordinates are signed and unbounded in all directions. Overlapping
// logical coordinates are allowed at the data level; PlaceAll resolves them
// visually by nudging second-and-later claimants of a cell so two screens
// never render exactly on top of each other. The nudge is deterministic and
// never changes the logical data.
//
// Everything in this package is a pure function of its inputs and safe to
// memoize per (col, row, platform) key.
package layout

import (
	"fmt"

	"github.com/screenloom/screenloom/pkg/screen"
)

// Rect is an axis-aligned rectangle in canvas pixel space.
// Derived, never persisted: recompute on demand from grid position and
// platform, and do not cache across platform changes.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the rectangle's center point.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Bounds is the bounding box over a screen set.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// overlapNudge is the pixel offset applied per extra screen claiming an
// already-occupied cell.
const overlapNudge = 24.0

// Place maps one logical grid position to its pixel rectangle.
func Place(col, row int, platform screen.Platform) Rect {
	p := screen.ProfileFor(platform)
	return Rect{
		X:      float64(col) * (p.CellWidth + p.GapX),
		Y:      float64(row) * (p.CellHeight + p.GapY),
		Width:  p.CellWidth,
		Height: p.CellHeight,
	}
}

// PlaceAll positions a full screen set, keyed by screen id. Records must be
// in a stable order (sortOrder) so that duplicate-cell nudging is
// deterministic: the first claimant of a cell sits exactly on it, each later
// claimant is shifted by a fixed diagonal offset.
func PlaceAll(records []screen.Record, platform screen.Platform) map[string]Rect {
	rects := make(map[string]Rect, len(records))
	claimed := make(map[string]int, len(records))
	for _, rec := range records {
		cell := fmt.Sprintf("%d:%d", rec.GridColumn, rec.GridRow)
		n := claimed[cell]
		claimed[cell] = n + 1

		r := Place(rec.GridColumn, rec.GridRow, platform)
		r.X += float64(n) * overlapNudge
		r.Y += float64(n) * overlapNudge
		rects[rec.ID] = r
	}
	return rects
}

// BoundingBox computes the bounding box over a screen set, used for the
// initial camera fit when a project opens. Bounds are taken over the rects
// PlaceAll renders, so nudged duplicate-cell claimants stay inside the fit.
// An empty set collapses to a single default-sized rect at the origin.
func BoundingBox(records []screen.Record, platform screen.Platform) Bounds {
	if len(records) == 0 {
		p := screen.ProfileFor(platform)
		return Bounds{MinX: 0, MinY: 0, MaxX: p.CellWidth, MaxY: p.CellHeight}
	}

	var b Bounds
	first := true
	for _, r := range PlaceAll(records, platform) {
		if first {
			b = Bounds{MinX: r.X, MinY: r.Y, MaxX: r.X + r.Width, MaxY: r.Y + r.Height}
			first = false
			continue
		}
		b.MinX = min(b.MinX, r.X)
		b.MinY = min(b.MinY, r.Y)
		b.MaxX = max(b.MaxX, r.X+r.Width)
		b.MaxY = max(b.MaxY, r.Y+r.Height)
	}
	return b
}
