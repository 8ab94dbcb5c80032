// Package actions turns user-level requests like "put the active
// window in the right grid column" into concrete window commands. The
// resolver is the only component that holds cycling positions and
// saved geometries between requests.
package actions

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hemebond/PyWO/internal/filter"
	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

// Kind discriminates the request variants.
type Kind int

const (
	KindCycle Kind = iota
	KindGridPut
	KindMove
	KindResize
	KindToggleState
	KindCenter
)

func (k Kind) String() string {
	switch k {
	case KindCycle:
		return "cycle"
	case KindGridPut:
		return "grid-put"
	case KindMove:
		return "move"
	case KindResize:
		return "resize"
	case KindToggleState:
		return "toggle-state"
	case KindCenter:
		return "center"
	}
	return "unknown"
}

// Request is one action to perform, tagged by Kind. Only the fields
// of the tagged variant are meaningful; the rest stay zero. A request
// is consumed by a single Resolve call and never reused.
type Request struct {
	ID     string
	Time   time.Time
	Source string

	Kind Kind

	// Target selects the windows the action applies to. Nil means
	// standard windows on the current desktop.
	Target filter.Expression

	// Grid overrides the configured default when non-zero.
	Grid geometry.Grid

	Reverse  bool               // cycle: previous instead of next
	Cell     *geometry.Cell     // grid-put: absolute target cell
	Dir      geometry.Direction // grid-put step, move, resize, expand
	Span     bool               // grid-put: grow across cells
	Amount   int                // move, resize: signed magnitude
	InCells  bool               // move, resize: magnitude is in cells
	Anchored bool               // resize: gravity-anchored, may act on both axes
	State    platform.State     // toggle-state: the flag to flip
}

// Stamp assigns the dispatch bookkeeping fields.
func (r *Request) Stamp(source string) {
	r.ID = uuid.NewString()
	r.Time = time.Now()
	r.Source = source
}

// TargetOrDefault returns the request filter, falling back to the
// implicit workspace filter.
func (r Request) TargetOrDefault() filter.Expression {
	if r.Target != nil {
		return r.Target
	}
	return filter.Workspace()
}

// Fingerprint condenses the request time and every semantic parameter
// into a comparable string. Two deliveries of the same request have
// equal fingerprints even when their ids differ.
func (r Request) Fingerprint() string {
	cell := "-"
	if r.Cell != nil {
		cell = r.Cell.String()
	}
	return fmt.Sprintf("%d|%s|%s|%dx%d+%d|%t|%s|%s|%t|%d|%t|%t|%s",
		r.Time.UnixNano(), r.Kind, r.TargetOrDefault().Key(),
		r.Grid.Columns, r.Grid.Rows, r.Grid.Gap,
		r.Reverse, cell, r.Dir, r.Span, r.Amount, r.InCells, r.Anchored,
		r.State)
}

func (r Request) String() string {
	return fmt.Sprintf("%s from %s (%s)", r.Kind, r.Source, r.ID)
}
