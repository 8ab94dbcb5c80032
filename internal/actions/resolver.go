package actions

import (
	"errors"
	"fmt"

	"github.com/hemebond/PyWO/internal/filter"
	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

var (
	// ErrOutOfBounds is returned when a resolved geometry would leave
	// the window with no visible area on the viewport.
	ErrOutOfBounds = errors.New("target geometry out of bounds")

	// ErrNoTarget is returned when the request filter selects no
	// window at all.
	ErrNoTarget = errors.New("no window matches the target filter")
)

// cycleState remembers where a cycling filter stopped. The order is
// frozen when it is seeded so that activations, which permute the
// stacking order, do not also permute the cycle.
type cycleState struct {
	order []platform.WindowID
	index int
}

// Resolver maps requests onto commands. It owns everything that
// survives between requests: per-filter cycling positions and saved
// geometries for state round trips. Methods are not safe for
// concurrent use; the dispatch loop is the single caller.
type Resolver struct {
	grid     geometry.Grid
	cycles   map[string]*cycleState
	restores map[platform.WindowID]map[platform.State]geometry.Rect
}

// NewResolver creates a resolver using defaultGrid for requests that
// do not bring their own.
func NewResolver(defaultGrid geometry.Grid) *Resolver {
	return &Resolver{
		grid:     defaultGrid,
		cycles:   make(map[string]*cycleState),
		restores: make(map[platform.WindowID]map[platform.State]geometry.Rect),
	}
}

// Resolve consumes one request against a fresh capture and returns
// the commands to apply. It never returns both commands and an error,
// and it never modifies the snapshots.
func (r *Resolver) Resolve(req Request, snaps []platform.Snapshot, viewport geometry.Rect, ctx filter.Context) ([]platform.Command, error) {
	selection := filter.Select(req.TargetOrDefault(), snaps, ctx)

	grid := req.Grid
	if grid == (geometry.Grid{}) {
		grid = r.grid
	}

	switch req.Kind {
	case KindCycle:
		return r.resolveCycle(req, selection)
	case KindGridPut:
		return resolveGridPut(req, grid, selection, viewport)
	case KindMove:
		return resolveMove(req, grid, selection, viewport)
	case KindResize:
		return resolveResize(req, grid, selection, viewport)
	case KindToggleState:
		return r.resolveToggle(req, selection)
	case KindCenter:
		return resolveCenter(selection, viewport)
	}
	return nil, fmt.Errorf("unknown request kind %d", req.Kind)
}

// target picks the window a single-window action applies to: the
// active window when it matches the filter, otherwise the topmost
// match.
func target(selection []platform.Snapshot) (platform.Snapshot, error) {
	for _, s := range selection {
		if s.Active {
			return s, nil
		}
	}
	if len(selection) == 0 {
		return platform.Snapshot{}, ErrNoTarget
	}
	return selection[0], nil
}

func (r *Resolver) resolveCycle(req Request, selection []platform.Snapshot) ([]platform.Command, error) {
	if len(selection) == 0 {
		return nil, ErrNoTarget
	}

	key := req.TargetOrDefault().Key()
	state := r.cycles[key]
	if state == nil || !sameMembers(state.order, selection) {
		state = seedCycle(selection)
		r.cycles[key] = state
	}

	if len(state.order) < 2 {
		return nil, nil
	}

	n := len(state.order)
	if req.Reverse {
		state.index = (state.index - 1 + n) % n
	} else {
		state.index = (state.index + 1) % n
	}

	return []platform.Command{{Window: state.order[state.index], Activate: true}}, nil
}

// seedCycle starts a fresh cycling order from the current selection,
// positioned on the active window when it is part of it.
func seedCycle(selection []platform.Snapshot) *cycleState {
	state := &cycleState{order: make([]platform.WindowID, len(selection))}
	for i, s := range selection {
		state.order[i] = s.ID
		if s.Active {
			state.index = i
		}
	}
	return state
}

// sameMembers compares the remembered ids with the selection as sets.
func sameMembers(order []platform.WindowID, selection []platform.Snapshot) bool {
	if len(order) != len(selection) {
		return false
	}
	seen := make(map[platform.WindowID]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	for _, s := range selection {
		if !seen[s.ID] {
			return false
		}
	}
	return true
}

func resolveGridPut(req Request, grid geometry.Grid, selection []platform.Snapshot, viewport geometry.Rect) ([]platform.Command, error) {
	win, err := target(selection)
	if err != nil {
		return nil, err
	}

	var dest geometry.Rect
	switch {
	case req.Cell != nil:
		dest, err = grid.CellRect(viewport, *req.Cell)
	case req.Span:
		dest, err = spanGrow(grid, viewport, win.Geometry, req.Dir)
	default:
		dest, err = cellStep(grid, viewport, win.Geometry, req.Dir)
	}
	if err != nil {
		return nil, err
	}
	return []platform.Command{{Window: win.ID, Geometry: &dest}}, nil
}

// cellStep moves the window one cell in the direction, stopping at
// the grid edge. A window between cells first snaps to the cell it
// overlaps most.
func cellStep(grid geometry.Grid, viewport, win geometry.Rect, dir geometry.Direction) (geometry.Rect, error) {
	current, ok := grid.CellFor(viewport, win)
	if !ok {
		return geometry.Rect{}, fmt.Errorf("window %s shares no cell with viewport %s: %w", win, viewport, ErrOutOfBounds)
	}
	dest := grid.Clamp(geometry.Cell{Col: current.Col + dir.DX, Row: current.Row + dir.DY})
	return grid.CellRect(viewport, dest)
}

// spanGrow widens an aligned window cell by cell toward dir; at the
// viewport edge it collapses back to the cell the growth anchors on.
// Unaligned windows snap to their most-overlapping cell first.
func spanGrow(grid geometry.Grid, viewport, win geometry.Rect, dir geometry.Direction) (geometry.Rect, error) {
	a, b, aligned := grid.SpanFor(viewport, win)
	if !aligned {
		current, ok := grid.CellFor(viewport, win)
		if !ok {
			return geometry.Rect{}, fmt.Errorf("window %s shares no cell with viewport %s: %w", win, viewport, ErrOutOfBounds)
		}
		return grid.CellRect(viewport, current)
	}

	na, nb := a, b
	switch {
	case dir.DX > 0:
		nb.Col++
	case dir.DX < 0:
		na.Col--
	case dir.DY > 0:
		nb.Row++
	case dir.DY < 0:
		na.Row--
	default:
		return geometry.Rect{}, fmt.Errorf("span grow without a direction")
	}

	if !grid.Contains(na) || !grid.Contains(nb) {
		anchor := a
		if dir.DX < 0 || dir.DY < 0 {
			anchor = b
		}
		return grid.CellRect(viewport, anchor)
	}
	return grid.SpanRect(viewport, na, nb)
}

func resolveMove(req Request, grid geometry.Grid, selection []platform.Snapshot, viewport geometry.Rect) ([]platform.Command, error) {
	win, err := target(selection)
	if err != nil {
		return nil, err
	}

	stepX, stepY, err := steps(req, grid, viewport)
	if err != nil {
		return nil, err
	}
	dest := win.Geometry.Translated(req.Dir.DX*stepX, req.Dir.DY*stepY)
	if err := onViewport(dest, viewport); err != nil {
		return nil, err
	}
	return []platform.Command{{Window: win.ID, Geometry: &dest}}, nil
}

func resolveResize(req Request, grid geometry.Grid, selection []platform.Snapshot, viewport geometry.Rect) ([]platform.Command, error) {
	win, err := target(selection)
	if err != nil {
		return nil, err
	}

	stepX, stepY, err := steps(req, grid, viewport)
	if err != nil {
		return nil, err
	}

	var dest geometry.Rect
	if req.Anchored {
		dest, err = anchoredResize(win.Geometry, req.Dir, stepX, stepY)
	} else {
		dest, err = edgeResize(win.Geometry, req.Dir, stepX, stepY)
	}
	if err != nil {
		return nil, err
	}
	if err := onViewport(dest, viewport); err != nil {
		return nil, err
	}
	return []platform.Command{{Window: win.ID, Geometry: &dest}}, nil
}

// steps translates the request amount into per-axis pixel deltas. A
// cell-based amount uses the dimensions of one grid cell as the unit.
func steps(req Request, grid geometry.Grid, viewport geometry.Rect) (stepX, stepY int, err error) {
	if !req.InCells {
		return req.Amount, req.Amount, nil
	}
	cell, err := grid.CellRect(viewport, geometry.Cell{})
	if err != nil {
		return 0, 0, err
	}
	return req.Amount * cell.Width, req.Amount * cell.Height, nil
}

// edgeResize moves the window edge facing dir; positive amounts grow
// the window outward, negative pull the edge back in.
func edgeResize(win geometry.Rect, dir geometry.Direction, stepX, stepY int) (geometry.Rect, error) {
	edge, ok := dir.Edge()
	if !ok {
		return geometry.Rect{}, fmt.Errorf("resize: no single edge for direction %s", dir)
	}
	delta := stepX
	if dir.DY != 0 {
		delta = stepY
	}
	// Outward along the left and top edges is a negative screen delta.
	if dir.DX < 0 || dir.DY < 0 {
		delta = -delta
	}
	return geometry.EdgeResize(win, edge, delta)
}

// anchoredResize grows or shrinks toward dir with the opposite side
// held in place, on both axes for diagonal directions.
func anchoredResize(win geometry.Rect, dir geometry.Direction, stepX, stepY int) (geometry.Rect, error) {
	if dir == geometry.NoDirection {
		return geometry.Rect{}, fmt.Errorf("resize without a direction")
	}
	anchor := geometry.Gravity{
		X: float64(1-dir.DX) / 2,
		Y: float64(1-dir.DY) / 2,
	}
	var dw, dh int
	if dir.DX != 0 {
		dw = stepX
	}
	if dir.DY != 0 {
		dh = stepY
	}
	return geometry.ResizeAnchored(win, anchor, dw, dh)
}

func (r *Resolver) resolveToggle(req Request, selection []platform.Snapshot) ([]platform.Command, error) {
	win, err := target(selection)
	if err != nil {
		return nil, err
	}

	cmd := platform.Command{Window: win.ID, StateMask: req.State}
	if win.State.Has(req.State) {
		cmd.StateMode = platform.ModeUnset
		if saved, ok := r.takeRestore(win.ID, req.State); ok {
			cmd.Geometry = &saved
		}
	} else {
		cmd.StateMode = platform.ModeSet
		if affectsGeometry(req.State) {
			r.saveRestore(win.ID, req.State, win.Geometry)
		}
	}
	return []platform.Command{cmd}, nil
}

// affectsGeometry reports whether the window manager rewrites the
// window geometry when the state is set, which is when the old
// geometry must be remembered for the way back.
func affectsGeometry(s platform.State) bool {
	return s.HasAny(platform.StateMaximized | platform.StateFullscreen)
}

func (r *Resolver) saveRestore(id platform.WindowID, flag platform.State, rect geometry.Rect) {
	per := r.restores[id]
	if per == nil {
		per = make(map[platform.State]geometry.Rect)
		r.restores[id] = per
	}
	per[flag] = rect
}

func (r *Resolver) takeRestore(id platform.WindowID, flag platform.State) (geometry.Rect, bool) {
	rect, ok := r.restores[id][flag]
	if ok {
		delete(r.restores[id], flag)
		if len(r.restores[id]) == 0 {
			delete(r.restores, id)
		}
	}
	return rect, ok
}

func resolveCenter(selection []platform.Snapshot, viewport geometry.Rect) ([]platform.Command, error) {
	win, err := target(selection)
	if err != nil {
		return nil, err
	}
	dest := geometry.Center.AnchorRect(viewport, win.Geometry.Width, win.Geometry.Height)
	return []platform.Command{{Window: win.ID, Geometry: &dest}}, nil
}

// onViewport rejects geometry that would leave no part of the window
// visible. Hanging partly off the edge is allowed.
func onViewport(dest, viewport geometry.Rect) error {
	if dest.OverlapArea(viewport) == 0 {
		return fmt.Errorf("%s shares no area with viewport %s: %w", dest, viewport, ErrOutOfBounds)
	}
	return nil
}

// RemoveWindow drops all state tied to a window that no longer
// exists. Cycling orders containing it reseed on their next use.
func (r *Resolver) RemoveWindow(id platform.WindowID) {
	delete(r.restores, id)
	for key, state := range r.cycles {
		for _, wid := range state.order {
			if wid == id {
				delete(r.cycles, key)
				break
			}
		}
	}
}

// Prune drops state for every window the alive set does not contain.
// The janitor uses it to catch windows that vanished without a
// delivered destroy event.
func (r *Resolver) Prune(alive map[platform.WindowID]bool) {
	for id := range r.restores {
		if !alive[id] {
			delete(r.restores, id)
		}
	}
	for key, state := range r.cycles {
		for _, id := range state.order {
			if !alive[id] {
				delete(r.cycles, key)
				break
			}
		}
	}
}

// Reset clears all remembered state, as after a config reload.
func (r *Resolver) Reset() {
	r.cycles = make(map[string]*cycleState)
	r.restores = make(map[platform.WindowID]map[platform.State]geometry.Rect)
}
