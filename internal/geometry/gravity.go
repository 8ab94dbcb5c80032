package geometry

// Gravity is an anchor point inside a rectangle expressed as fractions
// of its width and height: {0, 0} is the top-left corner, {1, 1} the
// bottom-right, {0.5, 0.5} the middle. The midpoint counts as
// belonging to every side, so Center is top, bottom, left and right at
// once.
type Gravity struct {
	X float64
	Y float64
}

// The nine standard anchors, named compass-style.
var (
	NorthWest = Gravity{0, 0}
	North     = Gravity{0.5, 0}
	NorthEast = Gravity{1, 0}
	West      = Gravity{0, 0.5}
	Center    = Gravity{0.5, 0.5}
	East      = Gravity{1, 0.5}
	SouthWest = Gravity{0, 1}
	South     = Gravity{0.5, 1}
	SouthEast = Gravity{1, 1}
)

// IsTop reports whether the anchor sits in the top half.
func (g Gravity) IsTop() bool { return g.Y <= 0.5 }

// IsBottom reports whether the anchor sits in the bottom half.
func (g Gravity) IsBottom() bool { return g.Y >= 0.5 }

// IsLeft reports whether the anchor sits in the left half.
func (g Gravity) IsLeft() bool { return g.X <= 0.5 }

// IsRight reports whether the anchor sits in the right half.
func (g Gravity) IsRight() bool { return g.X >= 0.5 }

// Invert flips the anchor across the requested axes.
func (g Gravity) Invert(horizontal, vertical bool) Gravity {
	out := g
	if horizontal {
		out.X = 1 - g.X
	}
	if vertical {
		out.Y = 1 - g.Y
	}
	return out
}

// PointIn returns the pixel the anchor lands on inside r.
func (g Gravity) PointIn(r Rect) (x, y int) {
	x = r.X + roundFrac(g.X, r.Width)
	y = r.Y + roundFrac(g.Y, r.Height)
	return x, y
}

// AnchorRect places a width x height rectangle inside outer so that
// the gravity anchor of the placed rectangle coincides with the same
// anchor of outer. Center gravity centers, NorthWest pins to the
// top-left corner, and so on.
func (g Gravity) AnchorRect(outer Rect, width, height int) Rect {
	return Rect{
		X:      outer.X + roundFrac(g.X, outer.Width-width),
		Y:      outer.Y + roundFrac(g.Y, outer.Height-height),
		Width:  width,
		Height: height,
	}
}

// ResizeAnchored grows or shrinks the rectangle by (dw, dh) while
// keeping the gravity anchor point fixed: SouthEast gravity grows
// toward the top-left, Center grows evenly in all directions. A
// non-positive result dimension fails with ErrDegenerate.
func ResizeAnchored(r Rect, g Gravity, dw, dh int) (Rect, error) {
	out := Rect{
		X:      r.X - roundFrac(g.X, dw),
		Y:      r.Y - roundFrac(g.Y, dh),
		Width:  r.Width + dw,
		Height: r.Height + dh,
	}
	if out.Empty() {
		return Rect{}, ErrDegenerate
	}
	return out, nil
}

// roundFrac computes frac*n rounded to the nearest integer, for
// negative n included.
func roundFrac(frac float64, n int) int {
	v := frac * float64(n)
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
