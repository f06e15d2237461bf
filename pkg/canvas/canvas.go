// Package canvas implements the coordinate-transform and arrow-geometry
// layer for the infinite canvas.
//
// Everything here is pure geometry over world-space rectangles (see
// pkg/layout) and a camera. Arrow paths are recomputed in full on every pan,
// zoom, or screen-set change; the only state carried between passes is the
// source-local element rectangle cache, which is invalidated wholesale when a
// sub-document reloads.
package canvas

import (
	"math"

	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/layout"
)

// Point is a position in either world or canvas pixel space, depending on
// which side of the camera transform it sits on.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Camera is the canvas viewport state: a pan offset applied after a uniform
// zoom about the world origin.
type Camera struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

// ToCanvas maps a world-space point into canvas pixel space.
func (c Camera) ToCanvas(p Point) Point {
	return Point{X: p.X*c.Zoom + c.PanX, Y: p.Y*c.Zoom + c.PanY}
}

// ToWorld inverts ToCanvas. A zero zoom is treated as identity scale to keep
// the inverse total.
func (c Camera) ToWorld(p Point) Point {
	z := c.Zoom
	if z == 0 {
		z = 1
	}
	return Point{X: (p.X - c.PanX) / z, Y: (p.Y - c.PanY) / z}
}

// Camera fit limits.
const (
	fitMargin = 0.08
	minZoom   = 0.05
	maxZoom   = 2.0
)

// FitCamera returns the camera that frames the given world bounds inside a
// viewport, with a small margin, centered. Used for the initial view when a
// project opens.
func FitCamera(b layout.Bounds, viewportW, viewportH float64) Camera {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 || viewportW <= 0 || viewportH <= 0 {
		return Camera{Zoom: 1}
	}

	zoom := math.Min(viewportW/(w*(1+2*fitMargin)), viewportH/(h*(1+2*fitMargin)))
	zoom = math.Max(minZoom, math.Min(maxZoom, zoom))

	cx := b.MinX + w/2
	cy := b.MinY + h/2
	return Camera{
		PanX: viewportW/2 - cx*zoom,
		PanY: viewportH/2 - cy*zoom,
		Zoom: zoom,
	}
}

// Arrow is one rendered navigation edge: a quadratic curve from just outside
// the source element to the nearest edge of the target screen, in canvas
// pixel space.
type Arrow struct {
	Start   Point `json:"start"`
	End     Point `json:"end"`
	Control Point `json:"control"`
}

// Arrow geometry constants (world-space pixels unless noted).
const (
	startGap      = 8.0  // clearance between the element edge and the arrow start
	baseCurvature = 0.18 // control-point offset as a fraction of arrow length
	fanSpread     = 18.0 // extra control offset per fan index
)

// ArrowPath computes one arrow in canvas space.
//
// elemLocal is the source element's rectangle in its sub-document's own
// coordinate space; srcScreen and dstScreen are the screens' world-space
// rectangles. fanIndex/fanCount spread multiple arrows sharing one source
// element so they never coincide; a single arrow uses 0,1.
func ArrowPath(elemLocal, srcScreen, dstScreen layout.Rect, cam Camera, fanIndex, fanCount int) Arrow {
	elem := layout.Rect{
		X:      srcScreen.X + elemLocal.X,
		Y:      srcScreen.Y + elemLocal.Y,
		Width:  elemLocal.Width,
		Height: elemLocal.Height,
	}

	tx, ty := dstScreen.Center()
	start := exitPoint(elem, Point{X: tx, Y: ty})
	end := entryPoint(dstScreen, start)

	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1
		dx = 1
	}
	// Perpendicular bend plus a deterministic per-index fan offset.
	bend := length*baseCurvature + (float64(fanIndex)-float64(fanCount-1)/2)*fanSpread
	mid := Point{X: start.X + dx/2, Y: start.Y + dy/2}
	control := Point{
		X: mid.X - dy/length*bend,
		Y: mid.Y + dx/length*bend,
	}

	return Arrow{
		Start:   cam.ToCanvas(start),
		End:     cam.ToCanvas(end),
		Control: cam.ToCanvas(control),
	}
}

// exitPoint picks the point just outside the element edge facing the target.
// The side is chosen by the dominant axis of the element-to-target direction.
func exitPoint(elem layout.Rect, toward Point) Point {
	cx, cy := elem.Center()
	dx, dy := toward.X-cx, toward.Y-cy
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return Point{X: elem.X + elem.Width + startGap, Y: cy}
		}
		return Point{X: elem.X - startGap, Y: cy}
	}
	if dy >= 0 {
		return Point{X: cx, Y: elem.Y + elem.Height + startGap}
	}
	return Point{X: cx, Y: elem.Y - startGap}
}

// entryPoint returns the point on the target rect's perimeter nearest to
// from: clamp into the rect, then push the clamped point to the closest edge.
func entryPoint(rect layout.Rect, from Point) Point {
	x := math.Max(rect.X, math.Min(from.X, rect.X+rect.Width))
	y := math.Max(rect.Y, math.Min(from.Y, rect.Y+rect.Height))

	dLeft := x - rect.X
	dRight := rect.X + rect.Width - x
	dTop := y - rect.Y
	dBottom := rect.Y + rect.Height - y

	minDist := math.Min(math.Min(dLeft, dRight), math.Min(dTop, dBottom))
	switch minDist {
	case dLeft:
		return Point{X: rect.X, Y: y}
	case dRight:
		return Point{X: rect.X + rect.Width, Y: y}
	case dTop:
		return Point{X: x, Y: rect.Y}
	default:
		return Point{X: x, Y: rect.Y + rect.Height}
	}
}

// ElementLocator resolves a flow edge's source element to its sub-document
// local rectangle. Implemented by RectCache; the rendering surface feeds the
// cache as elements become measurable.
type ElementLocator interface {
	Locate(screenID, descriptor string) (layout.Rect, bool)
}

// BuildArrows computes the full arrow set for one render pass.
//
// Edges whose source element or target screen cannot currently be located
// are omitted from the pass, not errors; they reappear once the element is
// measurable. Edges sharing a source element fan out deterministically in
// input order.
func BuildArrows(edges []flow.Edge, screenRects map[string]layout.Rect, elements ElementLocator, cam Camera) []Arrow {
	// Fan groups by source element.
	type groupKey struct{ screen, descriptor string }
	counts := make(map[groupKey]int)
	for _, e := range edges {
		counts[groupKey{e.FromScreenID, e.ElementDescriptor}]++
	}

	var arrows []Arrow
	seen := make(map[groupKey]int)
	for _, e := range edges {
		key := groupKey{e.FromScreenID, e.ElementDescriptor}
		idx := seen[key]
		seen[key] = idx + 1

		src, okSrc := screenRects[e.FromScreenID]
		dst, okDst := screenRects[e.ToScreenID]
		if !okSrc || !okDst {
			continue
		}
		elemLocal, ok := elements.Locate(e.FromScreenID, e.ElementDescriptor)
		if !ok {
			continue
		}
		arrows = append(arrows, ArrowPath(elemLocal, src, dst, cam, idx, counts[key]))
	}
	return arrows
}
