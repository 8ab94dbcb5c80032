package geometry

import (
	"errors"
	"testing"
)

func TestCellRectHalves1080p(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	grid := Grid{Columns: 2, Rows: 2}

	got, err := grid.CellRect(viewport, Cell{Col: 1, Row: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Rect{X: 960, Y: 0, Width: 960, Height: 540}
	if got != want {
		t.Fatalf("cell (1,0): got %s, want %s", got, want)
	}
}

func TestCellRectTilesViewportExactly(t *testing.T) {
	// Odd viewport sizes force remainder pixels; boundary division
	// must spread them without dropping or double-counting any.
	viewports := []Rect{
		{0, 0, 1920, 1080},
		{17, 31, 1921, 1079},
		{-300, 5, 1366, 768},
	}
	grids := []Grid{
		{Columns: 1, Rows: 1},
		{Columns: 2, Rows: 2},
		{Columns: 3, Rows: 2},
		{Columns: 5, Rows: 3},
	}

	for _, viewport := range viewports {
		for _, grid := range grids {
			covered := 0
			for col := 0; col < grid.Columns; col++ {
				for row := 0; row < grid.Rows; row++ {
					cell, err := grid.CellRect(viewport, Cell{Col: col, Row: row})
					if err != nil {
						t.Fatalf("grid %dx%d viewport %s: %v", grid.Columns, grid.Rows, viewport, err)
					}
					if cell.Empty() {
						t.Fatalf("grid %dx%d viewport %s cell (%d,%d) is empty", grid.Columns, grid.Rows, viewport, col, row)
					}
					covered += cell.Width * cell.Height

					// Adjacent cells must share boundaries.
					if col > 0 {
						left, _ := grid.CellRect(viewport, Cell{Col: col - 1, Row: row})
						if left.X2() != cell.X {
							t.Fatalf("grid %dx%d viewport %s: gap or overlap between columns %d and %d", grid.Columns, grid.Rows, viewport, col-1, col)
						}
					}
					if row > 0 {
						above, _ := grid.CellRect(viewport, Cell{Col: col, Row: row - 1})
						if above.Y2() != cell.Y {
							t.Fatalf("grid %dx%d viewport %s: gap or overlap between rows %d and %d", grid.Columns, grid.Rows, viewport, row-1, row)
						}
					}
				}
			}
			if covered != viewport.Width*viewport.Height {
				t.Fatalf("grid %dx%d viewport %s: cells cover %d px, viewport has %d",
					grid.Columns, grid.Rows, viewport, covered, viewport.Width*viewport.Height)
			}

			first, _ := grid.CellRect(viewport, Cell{})
			last, _ := grid.CellRect(viewport, Cell{Col: grid.Columns - 1, Row: grid.Rows - 1})
			if first.X != viewport.X || first.Y != viewport.Y {
				t.Fatalf("grid %dx%d viewport %s: first cell starts at %d,%d", grid.Columns, grid.Rows, viewport, first.X, first.Y)
			}
			if last.X2() != viewport.X2() || last.Y2() != viewport.Y2() {
				t.Fatalf("grid %dx%d viewport %s: last cell ends at %d,%d", grid.Columns, grid.Rows, viewport, last.X2(), last.Y2())
			}
		}
	}
}

func TestCellRectWithGaps(t *testing.T) {
	// Width 210, gap 10, 2 columns: interior = 210 - 3*10 = 180,
	// cell width = 90. First cell starts one gap in at x=10, second
	// at x = 10 + 90 + 10 = 110.
	viewport := Rect{X: 0, Y: 0, Width: 210, Height: 100}
	grid := Grid{Columns: 2, Rows: 1, Gap: 10}

	left, err := grid.CellRect(viewport, Cell{Col: 0, Row: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	right, err := grid.CellRect(viewport, Cell{Col: 1, Row: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if left.X != 10 || left.Width != 90 {
		t.Fatalf("left cell: got %s, want 90x80+10+10", left)
	}
	if right.X != 110 || right.Width != 90 {
		t.Fatalf("right cell: got %s, want x=110 w=90", right)
	}
	if right.X2() != 200 {
		t.Fatalf("right cell must end one gap before the viewport edge, ends at %d", right.X2())
	}
}

func TestCellRectRejectsInvalidGrids(t *testing.T) {
	viewport := Rect{Width: 100, Height: 100}

	for _, grid := range []Grid{
		{Columns: 0, Rows: 2},
		{Columns: 2, Rows: 0},
		{Columns: -1, Rows: 1},
		{Columns: 2, Rows: 2, Gap: 40}, // gaps leave no interior
	} {
		_, err := grid.CellRect(viewport, Cell{})
		if !errors.Is(err, ErrInvalidGrid) {
			t.Fatalf("grid %+v: got %v, want ErrInvalidGrid", grid, err)
		}
	}

	grid := Grid{Columns: 2, Rows: 2}
	if _, err := grid.CellRect(viewport, Cell{Col: 2, Row: 0}); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("out-of-range cell: got %v, want ErrInvalidGrid", err)
	}
}

func TestSpanRectCoversCellBlock(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	grid := Grid{Columns: 2, Rows: 2}

	span, err := grid.SpanRect(viewport, Cell{0, 0}, Cell{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Rect{X: 0, Y: 0, Width: 1920, Height: 540}
	if span != want {
		t.Fatalf("top-row span: got %s, want %s", span, want)
	}

	// Corners in reverse order describe the same block.
	reversed, err := grid.SpanRect(viewport, Cell{1, 0}, Cell{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reversed != span {
		t.Fatalf("reversed corners: got %s, want %s", reversed, span)
	}
}

func TestCellForPicksMostOverlapping(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, Width: 1000, Height: 1000}
	grid := Grid{Columns: 2, Rows: 2}

	// 60% of the window hangs into the right column.
	window := Rect{X: 300, Y: 100, Width: 500, Height: 300}
	cell, ok := grid.CellFor(viewport, window)
	if !ok {
		t.Fatalf("expected an overlapping cell")
	}
	if cell != (Cell{Col: 1, Row: 0}) {
		t.Fatalf("got %s, want (1,0)", cell)
	}

	// A window centered on the cross overlaps all four cells equally;
	// the tie breaks to the lowest (col, row).
	centered := Rect{X: 400, Y: 400, Width: 200, Height: 200}
	cell, ok = grid.CellFor(viewport, centered)
	if !ok {
		t.Fatalf("expected an overlapping cell")
	}
	if cell != (Cell{Col: 0, Row: 0}) {
		t.Fatalf("tie: got %s, want (0,0)", cell)
	}

	if _, ok := grid.CellFor(viewport, Rect{X: 5000, Y: 5000, Width: 10, Height: 10}); ok {
		t.Fatalf("expected no cell for a window outside the viewport")
	}
}

func TestSpanForDetectsAlignment(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	grid := Grid{Columns: 2, Rows: 2}

	a, b, ok := grid.SpanFor(viewport, Rect{X: 0, Y: 0, Width: 1920, Height: 540})
	if !ok {
		t.Fatalf("top row span not recognized")
	}
	if a != (Cell{0, 0}) || b != (Cell{1, 0}) {
		t.Fatalf("got %s..%s, want (0,0)..(1,0)", a, b)
	}

	if _, _, ok := grid.SpanFor(viewport, Rect{X: 3, Y: 0, Width: 960, Height: 540}); ok {
		t.Fatalf("misaligned rect must not report a span")
	}
}
