// Package geometry holds the pure math the engine runs on: rectangles
// in desktop pixel coordinates, gravity anchors, and grid partitioning
// of a viewport. Nothing in this package touches the window system.
package geometry

import (
	"errors"
	"fmt"
)

// ErrDegenerate is returned when an operation would produce a
// rectangle with non-positive width or height. Such results are
// rejected, not clamped.
var ErrDegenerate = errors.New("degenerate geometry")

// Rect is a rectangle in desktop pixel coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// X2 returns the x coordinate one past the right edge.
func (r Rect) X2() int { return r.X + r.Width }

// Y2 returns the y coordinate one past the bottom edge.
func (r Rect) Y2() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// ContainsPoint reports whether (x, y) lies inside the rectangle.
// Edges are half-open: the right and bottom boundaries are excluded.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.X && x < r.X2() && y >= r.Y && y < r.Y2()
}

// Translated returns a copy shifted by (dx, dy).
func (r Rect) Translated(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Intersect returns the overlapping region of two rectangles, or a
// zero Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X2(), o.X2())
	y2 := min(r.Y2(), o.Y2())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// OverlapArea returns the area shared by two rectangles in pixels.
func (r Rect) OverlapArea(o Rect) int {
	isect := r.Intersect(o)
	return isect.Width * isect.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Edge identifies one side of a rectangle.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	}
	return "unknown"
}

// EdgeResize moves one edge of the rectangle by delta pixels along its
// axis (positive is right/down), keeping the opposite edge fixed. A
// result with non-positive width or height fails with
// ErrDegenerate.
func EdgeResize(r Rect, edge Edge, delta int) (Rect, error) {
	out := r
	switch edge {
	case EdgeLeft:
		out.X += delta
		out.Width -= delta
	case EdgeRight:
		out.Width += delta
	case EdgeTop:
		out.Y += delta
		out.Height -= delta
	case EdgeBottom:
		out.Height += delta
	default:
		return Rect{}, fmt.Errorf("edge resize: unknown edge %d", edge)
	}
	if out.Empty() {
		return Rect{}, fmt.Errorf("edge resize %s by %d on %s: %w", edge, delta, r, ErrDegenerate)
	}
	return out, nil
}

// Direction is a unit step along the grid axes.
type Direction struct {
	DX int
	DY int
}

var (
	NoDirection = Direction{}
	Left        = Direction{DX: -1}
	Right       = Direction{DX: 1}
	Up          = Direction{DY: -1}
	Down        = Direction{DY: 1}
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	case NoDirection:
		return "none"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}

// Edge returns the rectangle edge a directional resize acts on.
// Diagonal and zero directions map to no single edge.
func (d Direction) Edge() (Edge, bool) {
	switch d {
	case Left:
		return EdgeLeft, true
	case Right:
		return EdgeRight, true
	case Up:
		return EdgeTop, true
	case Down:
		return EdgeBottom, true
	}
	return 0, false
}
