package actions

import (
	"testing"

	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Request
	}{
		{"cycle next", Request{Kind: KindCycle}},
		{"cycle prev", Request{Kind: KindCycle, Reverse: true}},
		{"put 1,0", Request{Kind: KindGridPut, Cell: &geometry.Cell{Col: 1, Row: 0}}},
		{"put left", Request{Kind: KindGridPut, Dir: geometry.Left}},
		{"span right", Request{Kind: KindGridPut, Dir: geometry.Right, Span: true}},
		{"move down", Request{Kind: KindMove, Dir: geometry.Down, Amount: 1, InCells: true}},
		{"move left 250", Request{Kind: KindMove, Dir: geometry.Left, Amount: 250}},
		{"move up 2c", Request{Kind: KindMove, Dir: geometry.Up, Amount: 2, InCells: true}},
		{"resize right 50", Request{Kind: KindResize, Dir: geometry.Right, Amount: 50}},
		{"resize down -1c", Request{Kind: KindResize, Dir: geometry.Down, Amount: -1, InCells: true}},
		{"expand right", Request{Kind: KindResize, Dir: geometry.Right, Amount: 1, InCells: true, Anchored: true}},
		{"expand up-left", Request{Kind: KindResize, Dir: geometry.Direction{DX: -1, DY: -1}, Amount: 1, InCells: true, Anchored: true}},
		{"shrink down", Request{Kind: KindResize, Dir: geometry.Down, Amount: -1, InCells: true, Anchored: true}},
		{"center", Request{Kind: KindCenter}},
		{"toggle maximized", Request{Kind: KindToggleState, State: platform.StateMaximized}},
		{"toggle fullscreen", Request{Kind: KindToggleState, State: platform.StateFullscreen}},
		{"  put   right  ", Request{Kind: KindGridPut, Dir: geometry.Right}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if tt.want.Cell != nil {
			if got.Cell == nil || *got.Cell != *tt.want.Cell {
				t.Fatalf("%q: cell %v, want %v", tt.in, got.Cell, tt.want.Cell)
			}
			got.Cell, tt.want.Cell = nil, nil
		}
		if got != tt.want {
			t.Fatalf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"levitate",
		"cycle",
		"cycle sideways",
		"put",
		"put 1",
		"put 1,x",
		"put northwest",
		"span 1,0",
		"move right 0",
		"move right -10",
		"move right 10 20",
		"resize up",
		"resize up 0",
		"resize up abc",
		"expand",
		"shrink diagonally",
		"center now",
		"toggle",
		"toggle invisible",
	}
	for _, in := range bad {
		if _, err := Parse(in); err == nil {
			t.Fatalf("%q: expected an error", in)
		}
	}
}

func TestFingerprintIgnoresID(t *testing.T) {
	a, err := Parse("resize right 50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := a
	a.Stamp("hotkey")
	b.Stamp("hotkey")
	b.Time = a.Time

	if a.ID == b.ID {
		t.Fatalf("stamping must mint fresh ids")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("same parameters and time must fingerprint equally")
	}

	c, _ := Parse("resize right 51")
	c.Time = a.Time
	if c.Fingerprint() == a.Fingerprint() {
		t.Fatalf("different parameters must fingerprint differently")
	}
}
