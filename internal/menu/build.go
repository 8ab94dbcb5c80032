package menu

import (
	"fmt"

	"github.com/hemebond/PyWO/internal/config"
)

var pickerDirections = []string{"left", "right", "up", "down"}

var toggleable = []string{
	"maximized", "maximized-horz", "maximized-vert",
	"fullscreen", "sticky", "shaded", "minimized",
}

// Build lists every action reachable from the configuration: the
// user's bindings first with their key chords, then a catalog of the
// remaining grammar over the configured grid. A binding's named grid
// applies only through its key chord; the menu submits the bare
// action string.
func Build(cfg *config.Config) []Entry {
	var entries []Entry
	bound := make(map[string]bool)

	if len(cfg.Bindings) > 0 {
		entries = append(entries, Entry{Label: "Bindings", Header: true})
		for _, b := range cfg.Bindings {
			action := b.Action
			if b.Filter != "" {
				action = action + " on " + b.Filter
			}
			bound[action] = true
			entries = append(entries, Entry{Label: action, Action: action, Keys: b.Keys})
		}
	}

	section := func(title string, actions []string) {
		var fresh []string
		for _, a := range actions {
			if !bound[a] {
				fresh = append(fresh, a)
			}
		}
		if len(fresh) == 0 {
			return
		}
		entries = append(entries, Entry{Label: title, Header: true})
		for _, a := range fresh {
			entries = append(entries, Entry{Label: a, Action: a})
		}
	}

	var grid []string
	for row := 0; row < cfg.Grid.Rows; row++ {
		for col := 0; col < cfg.Grid.Columns; col++ {
			grid = append(grid, fmt.Sprintf("put %d,%d", col, row))
		}
	}
	for _, dir := range pickerDirections {
		grid = append(grid, "put "+dir)
	}
	for _, dir := range pickerDirections {
		grid = append(grid, "span "+dir)
	}
	section("Grid", grid)

	var sizing []string
	for _, dir := range pickerDirections {
		sizing = append(sizing, "move "+dir)
	}
	for _, dir := range pickerDirections {
		sizing = append(sizing, "resize "+dir+" 1c")
	}
	for _, dir := range pickerDirections {
		sizing = append(sizing, "expand "+dir)
	}
	for _, dir := range pickerDirections {
		sizing = append(sizing, "shrink "+dir)
	}
	section("Move & resize", sizing)

	windows := []string{"cycle next", "cycle prev", "center"}
	for _, st := range toggleable {
		windows = append(windows, "toggle "+st)
	}
	section("Windows & states", windows)

	return entries
}
