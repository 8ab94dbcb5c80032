package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is returned for grids that cannot partition a
// viewport: non-positive dimensions, out-of-range cells, or gaps that
// leave no room for the cells themselves.
var ErrInvalidGrid = errors.New("invalid grid")

// Grid partitions a viewport into Columns x Rows cells separated (and
// surrounded) by Gap pixels. Cell rectangles are computed on demand
// and never stored.
type Grid struct {
	Columns int
	Rows    int
	Gap     int
}

// Cell addresses one grid cell. (0, 0) is top-left.
type Cell struct {
	Col int
	Row int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Validate checks the grid dimensions.
func (g Grid) Validate() error {
	if g.Columns <= 0 || g.Rows <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Columns, g.Rows)
	}
	if g.Gap < 0 {
		return fmt.Errorf("%w: negative gap %d", ErrInvalidGrid, g.Gap)
	}
	return nil
}

// Contains reports whether the cell lies inside the grid.
func (g Grid) Contains(c Cell) bool {
	return c.Col >= 0 && c.Col < g.Columns && c.Row >= 0 && c.Row < g.Rows
}

// Clamp returns the cell moved to the nearest valid grid position.
func (g Grid) Clamp(c Cell) Cell {
	c.Col = min(max(c.Col, 0), g.Columns-1)
	c.Row = min(max(c.Row, 0), g.Rows-1)
	return c
}

// CellRect returns the rectangle of one cell inside the viewport.
//
// Cell boundaries are computed by integer division of the interior
// span, so the cells of a grid always tile the viewport exactly: the
// widths of a row sum to the viewport width minus the configured gaps,
// with remainder pixels spread across the cells rather than dropped.
func (g Grid) CellRect(viewport Rect, cell Cell) (Rect, error) {
	return g.SpanRect(viewport, cell, cell)
}

// SpanRect returns the rectangle covering the cell block between a and
// b inclusive (corners in any order). Interior gaps are absorbed into
// the span.
func (g Grid) SpanRect(viewport Rect, a, b Cell) (Rect, error) {
	if err := g.Validate(); err != nil {
		return Rect{}, err
	}
	if !g.Contains(a) || !g.Contains(b) {
		return Rect{}, fmt.Errorf("%w: cell %s outside %dx%d", ErrInvalidGrid, outsideOf(g, a, b), g.Columns, g.Rows)
	}

	c1, c2 := min(a.Col, b.Col), max(a.Col, b.Col)
	r1, r2 := min(a.Row, b.Row), max(a.Row, b.Row)

	interiorW := viewport.Width - (g.Columns+1)*g.Gap
	interiorH := viewport.Height - (g.Rows+1)*g.Gap
	if interiorW < g.Columns || interiorH < g.Rows {
		return Rect{}, fmt.Errorf("%w: %dx%d with gap %d does not fit %s", ErrInvalidGrid, g.Columns, g.Rows, g.Gap, viewport)
	}

	x1 := viewport.X + g.Gap*(c1+1) + c1*interiorW/g.Columns
	x2 := viewport.X + g.Gap*(c2+1) + (c2+1)*interiorW/g.Columns
	y1 := viewport.Y + g.Gap*(r1+1) + r1*interiorH/g.Rows
	y2 := viewport.Y + g.Gap*(r2+1) + (r2+1)*interiorH/g.Rows

	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, nil
}

// CellFor returns the cell sharing the most area with r. Ties break to
// the lowest (col, row). The second return is false when r overlaps no
// cell at all.
func (g Grid) CellFor(viewport Rect, r Rect) (Cell, bool) {
	if g.Validate() != nil {
		return Cell{}, false
	}

	best := Cell{}
	bestArea := 0
	for col := 0; col < g.Columns; col++ {
		for row := 0; row < g.Rows; row++ {
			cellRect, err := g.CellRect(viewport, Cell{Col: col, Row: row})
			if err != nil {
				return Cell{}, false
			}
			if area := r.OverlapArea(cellRect); area > bestArea {
				best = Cell{Col: col, Row: row}
				bestArea = area
			}
		}
	}
	return best, bestArea > 0
}

// SpanFor returns the exact contiguous cell block r covers, or false
// when r is not aligned to any such block.
func (g Grid) SpanFor(viewport Rect, r Rect) (a, b Cell, ok bool) {
	if g.Validate() != nil {
		return Cell{}, Cell{}, false
	}
	for c1 := 0; c1 < g.Columns; c1++ {
		for r1 := 0; r1 < g.Rows; r1++ {
			for c2 := c1; c2 < g.Columns; c2++ {
				for r2 := r1; r2 < g.Rows; r2++ {
					span, err := g.SpanRect(viewport, Cell{c1, r1}, Cell{c2, r2})
					if err == nil && span == r {
						return Cell{c1, r1}, Cell{c2, r2}, true
					}
				}
			}
		}
	}
	return Cell{}, Cell{}, false
}

func outsideOf(g Grid, a, b Cell) Cell {
	if !g.Contains(a) {
		return a
	}
	return b
}
