package actions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

var directions = map[string]geometry.Direction{
	"left":  geometry.Left,
	"right": geometry.Right,
	"up":    geometry.Up,
	"down":  geometry.Down,
}

var diagonals = map[string]geometry.Direction{
	"up-left":    {DX: -1, DY: -1},
	"up-right":   {DX: 1, DY: -1},
	"down-left":  {DX: -1, DY: 1},
	"down-right": {DX: 1, DY: 1},
}

var toggleStates = map[string]platform.State{
	"maximized":      platform.StateMaximized,
	"maximized-horz": platform.StateMaximizedHorz,
	"maximized-vert": platform.StateMaximizedVert,
	"fullscreen":     platform.StateFullscreen,
	"sticky":         platform.StateSticky,
	"shaded":         platform.StateShaded,
	"minimized":      platform.StateMinimized,
}

// Parse reads an action string like "put right" or "resize down 50"
// into a request. The returned request carries only the semantic
// fields; callers stamp it with id, time and source before enqueueing.
//
// The grammar:
//
//	cycle next|prev
//	put COL,ROW
//	put left|right|up|down
//	span left|right|up|down
//	move left|right|up|down [N[c]]
//	resize left|right|up|down [-]N[c]
//	expand DIR    shrink DIR     (DIR may be diagonal, e.g. up-left)
//	center
//	toggle STATE
func Parse(s string) (Request, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("empty action")
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "cycle":
		return parseCycle(args)
	case "put":
		return parsePut(args)
	case "span":
		return parseSpan(args)
	case "move":
		return parseMove(args)
	case "resize":
		return parseResize(args)
	case "expand":
		return parseGravityResize(args, false)
	case "shrink":
		return parseGravityResize(args, true)
	case "center":
		if len(args) != 0 {
			return Request{}, fmt.Errorf("center takes no arguments")
		}
		return Request{Kind: KindCenter}, nil
	case "toggle":
		return parseToggle(args)
	}
	return Request{}, fmt.Errorf("unknown action %q", verb)
}

func parseCycle(args []string) (Request, error) {
	if len(args) != 1 {
		return Request{}, fmt.Errorf("cycle: want next or prev")
	}
	switch args[0] {
	case "next":
		return Request{Kind: KindCycle}, nil
	case "prev":
		return Request{Kind: KindCycle, Reverse: true}, nil
	}
	return Request{}, fmt.Errorf("cycle: want next or prev, got %q", args[0])
}

func parsePut(args []string) (Request, error) {
	if len(args) != 1 {
		return Request{}, fmt.Errorf("put: want a direction or COL,ROW")
	}
	if dir, ok := directions[args[0]]; ok {
		return Request{Kind: KindGridPut, Dir: dir}, nil
	}

	colTok, rowTok, ok := strings.Cut(args[0], ",")
	if !ok {
		return Request{}, fmt.Errorf("put: want a direction or COL,ROW, got %q", args[0])
	}
	col, err := strconv.Atoi(colTok)
	if err != nil {
		return Request{}, fmt.Errorf("put: bad column %q", colTok)
	}
	row, err := strconv.Atoi(rowTok)
	if err != nil {
		return Request{}, fmt.Errorf("put: bad row %q", rowTok)
	}
	return Request{Kind: KindGridPut, Cell: &geometry.Cell{Col: col, Row: row}}, nil
}

func parseSpan(args []string) (Request, error) {
	if len(args) != 1 {
		return Request{}, fmt.Errorf("span: want a direction")
	}
	dir, ok := directions[args[0]]
	if !ok {
		return Request{}, fmt.Errorf("span: want a direction, got %q", args[0])
	}
	return Request{Kind: KindGridPut, Dir: dir, Span: true}, nil
}

func parseMove(args []string) (Request, error) {
	if len(args) < 1 || len(args) > 2 {
		return Request{}, fmt.Errorf("move: want a direction and an optional amount")
	}
	dir, ok := directions[args[0]]
	if !ok {
		return Request{}, fmt.Errorf("move: want a direction, got %q", args[0])
	}

	// Without an amount a move steps one grid cell.
	req := Request{Kind: KindMove, Dir: dir, Amount: 1, InCells: true}
	if len(args) == 2 {
		amount, inCells, err := parseAmount(args[1])
		if err != nil {
			return Request{}, fmt.Errorf("move: %w", err)
		}
		if amount <= 0 {
			return Request{}, fmt.Errorf("move: amount must be positive, got %d", amount)
		}
		req.Amount, req.InCells = amount, inCells
	}
	return req, nil
}

func parseResize(args []string) (Request, error) {
	if len(args) != 2 {
		return Request{}, fmt.Errorf("resize: want a direction and an amount")
	}
	dir, ok := directions[args[0]]
	if !ok {
		return Request{}, fmt.Errorf("resize: want a direction, got %q", args[0])
	}
	amount, inCells, err := parseAmount(args[1])
	if err != nil {
		return Request{}, fmt.Errorf("resize: %w", err)
	}
	if amount == 0 {
		return Request{}, fmt.Errorf("resize: amount must not be zero")
	}
	return Request{Kind: KindResize, Dir: dir, Amount: amount, InCells: inCells}, nil
}

func parseGravityResize(args []string, shrink bool) (Request, error) {
	verb := "expand"
	if shrink {
		verb = "shrink"
	}
	if len(args) != 1 {
		return Request{}, fmt.Errorf("%s: want a direction", verb)
	}
	dir, ok := directions[args[0]]
	if !ok {
		dir, ok = diagonals[args[0]]
	}
	if !ok {
		return Request{}, fmt.Errorf("%s: want a direction, got %q", verb, args[0])
	}
	amount := 1
	if shrink {
		amount = -1
	}
	return Request{Kind: KindResize, Dir: dir, Amount: amount, InCells: true, Anchored: true}, nil
}

func parseToggle(args []string) (Request, error) {
	if len(args) != 1 {
		return Request{}, fmt.Errorf("toggle: want a state name")
	}
	state, ok := toggleStates[args[0]]
	if !ok {
		return Request{}, fmt.Errorf("toggle: unknown state %q", args[0])
	}
	return Request{Kind: KindToggleState, State: state}, nil
}

// parseAmount reads "50" as pixels and "2c" as grid cells. The sign
// is preserved.
func parseAmount(tok string) (amount int, inCells bool, err error) {
	if rest, ok := strings.CutSuffix(tok, "c"); ok {
		tok, inCells = rest, true
	}
	amount, err = strconv.Atoi(tok)
	if err != nil {
		return 0, false, fmt.Errorf("bad amount %q", tok)
	}
	return amount, inCells, nil
}
