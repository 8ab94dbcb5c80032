package menu

import (
	"strings"
	"testing"

	"github.com/hemebond/PyWO/internal/config"
)

func TestBuild_BindingsCarryChords(t *testing.T) {
	entries := Build(config.DefaultConfig())

	if len(entries) == 0 || !entries[0].Header || entries[0].Label != "Bindings" {
		t.Fatalf("expected a Bindings header first, got %+v", entries[:1])
	}

	for _, e := range entries {
		if e.Action == "cycle next" {
			if e.Keys != "Mod4-Mod1-j" {
				t.Fatalf("expected the bound chord, got %q", e.Keys)
			}
			return
		}
	}
	t.Fatal("cycle next binding missing from the menu")
}

func TestBuild_CatalogCoversGridCells(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bindings = nil

	entries := Build(cfg)

	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	joined := strings.Join(actions, "\n")
	// 3x2 grid: six absolute cells from put 0,0 to put 2,1.
	for _, want := range []string{"put 0,0", "put 2,1", "span left", "resize left 1c"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("catalog missing %q:\n%s", want, joined)
		}
	}
}

func TestBuild_SkipsBoundActions(t *testing.T) {
	entries := Build(config.DefaultConfig())

	count := 0
	for _, e := range entries {
		if e.Action == "put left" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected put left exactly once, got %d", count)
	}
}

func TestBuild_BindingFilterBecomesClause(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Filters = map[string]config.FilterConfig{"browsers": {Class: []string{"firefox"}}}
	cfg.Bindings = []config.Binding{
		{Keys: "Mod4-f", Action: "toggle fullscreen", Filter: "browsers"},
	}

	entries := Build(cfg)
	for _, e := range entries {
		if e.Header {
			continue
		}
		if e.Action == "toggle fullscreen on browsers" {
			return
		}
	}
	t.Fatal("expected the filter field to become an inline clause")
}

func TestRofiRow_HeaderNonselectable(t *testing.T) {
	p := &Picker{command: "rofi", kind: kindRofi}

	out := p.formatRow(Entry{Label: "Grid", Header: true})
	if !strings.Contains(out, "<b>Grid</b>") {
		t.Fatalf("expected bold header markup, got %q", out)
	}
	if !strings.Contains(out, "\x00nonselectable\x1ftrue") {
		t.Fatalf("expected nonselectable property, got %q", out)
	}
}

func TestRofiRow_KeysHint(t *testing.T) {
	p := &Picker{command: "rofi", kind: kindRofi}

	out := p.formatRow(Entry{Label: "put left", Action: "put left", Keys: "Mod4-Mod1-Left"})
	if !strings.Contains(out, "Mod4-Mod1-Left</span>") {
		t.Fatalf("expected the chord in a dim span, got %q", out)
	}
	if !strings.Contains(out, "\x00meta\x1fMod4-Mod1-Left") {
		t.Fatalf("expected the chord as a search keyword, got %q", out)
	}
	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
}

func TestRofiArgs(t *testing.T) {
	p := &Picker{command: "rofi", kind: kindRofi}

	args := strings.Join(p.args("pywo"), " ")
	for _, want := range []string{"-dmenu", "-format i", "-no-custom", "-p pywo"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in args, got %q", want, args)
		}
	}
}

func TestDmenuRows_DropHeadersAndDisambiguate(t *testing.T) {
	p := &Picker{command: "dmenu", kind: kindDmenu}

	rows := p.rows([]Entry{
		{Label: "Grid", Header: true},
		{Label: "put left", Action: "put left"},
		{Label: "put left", Action: "put left on browsers"},
	})
	if len(rows) != 2 {
		t.Fatalf("expected headers dropped, got %d rows", len(rows))
	}
	if rows[1].Label != "put left (2)" {
		t.Fatalf("expected duplicate label numbered, got %q", rows[1].Label)
	}
}

func TestParseSelection_RofiIndex(t *testing.T) {
	p := &Picker{command: "rofi", kind: kindRofi}
	rows := []Entry{
		{Label: "put left", Action: "put left"},
		{Label: "put right", Action: "put right"},
	}

	got, err := p.parseSelection("1", rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Action != "put right" {
		t.Fatalf("expected put right, got %q", got.Action)
	}
}

func TestParseSelection_DmenuLabel(t *testing.T) {
	p := &Picker{command: "dmenu", kind: kindDmenu}
	rows := []Entry{
		{Label: "put left", Action: "put left", Keys: "Mod4-Left"},
	}

	got, err := p.parseSelection("put left  [Mod4-Left]", rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Action != "put left" {
		t.Fatalf("expected put left, got %q", got.Action)
	}
}
