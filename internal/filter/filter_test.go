package filter

import (
	"testing"

	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

func snapshots() []platform.Snapshot {
	return []platform.Snapshot{
		{ID: 3, Desktop: 1, Type: platform.TypeNormal, Class: "Firefox"},
		{ID: 7, Desktop: 2, Type: platform.TypeNormal, Class: "Chromium", Active: true},
		{ID: 9, Desktop: 2, Type: platform.TypeNormal, Class: "Gimp"},
		{ID: 11, Desktop: platform.DesktopAll, Type: platform.TypeNormal, Class: "Xterm"},
		{ID: 12, Desktop: 0, Type: platform.TypeDock, Class: "Polybar"},
	}
}

func ids(snaps []platform.Snapshot) []platform.WindowID {
	out := make([]platform.WindowID, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID
	}
	return out
}

func TestActiveOnDesktop(t *testing.T) {
	expr := And(Active(), OnDesktop(2))
	got := Select(expr, snapshots(), Context{CurrentDesktop: 2})
	if len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("got %v, want exactly [7]", ids(got))
	}
}

func TestOnDesktopSkipsSticky(t *testing.T) {
	// Window 11 lives on all desktops; a concrete desktop comparison
	// has nothing to compare against and must not match.
	got := Select(OnDesktop(2), snapshots(), Context{})
	if len(got) != 2 || got[0].ID != 7 || got[1].ID != 9 {
		t.Fatalf("got %v, want [7 9]", ids(got))
	}

	got = Select(OnCurrentDesktop(), snapshots(), Context{CurrentDesktop: 2})
	if len(got) != 3 || got[0].ID != 7 || got[1].ID != 9 || got[2].ID != 11 {
		t.Fatalf("current desktop includes sticky: got %v, want [7 9 11]", ids(got))
	}
}

func TestSelectPreservesOrder(t *testing.T) {
	got := Select(TypeIs(platform.TypeNormal), snapshots(), Context{})
	want := []platform.WindowID{3, 7, 9, 11}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i, s := range got {
		if s.ID != want[i] {
			t.Fatalf("got %v, want %v", ids(got), want)
		}
	}
}

func TestClassMatchIgnoresCase(t *testing.T) {
	got := Select(ClassIs("firefox", "GIMP"), snapshots(), Context{})
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 9 {
		t.Fatalf("got %v, want [3 9]", ids(got))
	}
}

func TestStateExpressions(t *testing.T) {
	snaps := []platform.Snapshot{
		{ID: 1, State: platform.StateMaximized | platform.StateSticky},
		{ID: 2, State: platform.StateMaximizedHorz},
		{ID: 3},
	}

	got := Select(HasState(platform.StateMaximized), snaps, Context{})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("both maximize flags required: got %v", ids(got))
	}

	got = Select(LacksState(platform.StateMaximized), snaps, Context{})
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("any maximize flag disqualifies: got %v", ids(got))
	}
}

func TestContainsPoint(t *testing.T) {
	snaps := []platform.Snapshot{
		{ID: 1, Geometry: geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}},
		{ID: 2, Geometry: geometry.Rect{X: 100, Y: 0, Width: 100, Height: 100}},
	}
	got := Select(ContainsPoint(100, 50), snaps, Context{})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("got %v, want [2]", ids(got))
	}
}

// probeExpr records whether it was evaluated.
type probeExpr struct {
	hit    *bool
	result bool
}

func (p probeExpr) Match(platform.Snapshot, Context) bool {
	*p.hit = true
	return p.result
}

func (p probeExpr) Key() string { return "probe" }

func TestShortCircuit(t *testing.T) {
	var hit bool

	expr := And(OnDesktop(5), probeExpr{hit: &hit, result: true})
	expr.Match(platform.Snapshot{Desktop: 1}, Context{})
	if hit {
		t.Fatalf("and must stop at the first false child")
	}

	expr = Or(Active(), probeExpr{hit: &hit, result: false})
	expr.Match(platform.Snapshot{Active: true}, Context{})
	if hit {
		t.Fatalf("or must stop at the first true child")
	}
}

func TestKeysAreCanonical(t *testing.T) {
	a := ClassIs("Firefox", "chromium")
	b := ClassIs("CHROMIUM", "firefox")
	if a.Key() != b.Key() {
		t.Fatalf("class keys differ: %q vs %q", a.Key(), b.Key())
	}

	x := And(Active(), OnDesktop(2))
	y := And(Active(), OnDesktop(2))
	if x.Key() != y.Key() {
		t.Fatalf("equal filters must share a key")
	}
	if x.Key() == And(Active(), OnDesktop(3)).Key() {
		t.Fatalf("different filters must not share a key")
	}

	if IDIn(9, 3, 7).Key() != IDIn(3, 7, 9).Key() {
		t.Fatalf("id keys must not depend on argument order")
	}
}

func TestPresetCompile(t *testing.T) {
	desktop := 2
	preset := Preset{
		Class:     []string{"firefox"},
		Desktop:   &desktop,
		NotStates: []string{"minimized", "shaded"},
	}
	expr, err := preset.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Select(expr, snapshots(), Context{})
	if len(got) != 0 {
		t.Fatalf("firefox is on desktop 1, expected no match, got %v", ids(got))
	}

	preset.Desktop = nil
	expr, err = preset.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = Select(expr, snapshots(), Context{})
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("got %v, want [3]", ids(got))
	}
}

func TestPresetCompileRejectsUnknownTokens(t *testing.T) {
	if _, err := (Preset{Type: []string{"gadget"}}).Compile(); err == nil {
		t.Fatalf("unknown type must fail")
	}
	if _, err := (Preset{States: []string{"wobbly"}}).Compile(); err == nil {
		t.Fatalf("unknown state must fail")
	}
	if _, err := (Preset{}).Compile(); err == nil {
		t.Fatalf("empty preset must fail")
	}
}

func TestWorkspaceExcludesFurniture(t *testing.T) {
	got := Select(Workspace(), snapshots(), Context{CurrentDesktop: 2})
	// Dock 12 and off-desktop 3 drop out; sticky 11 stays.
	if len(got) != 3 || got[0].ID != 7 || got[1].ID != 9 || got[2].ID != 11 {
		t.Fatalf("got %v, want [7 9 11]", ids(got))
	}
}
