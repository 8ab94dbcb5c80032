// Package filter selects windows from a snapshot list using small
// composable predicate expressions. Expressions are immutable and
// carry a stable identity key, so the same filter used twice refers
// to the same cycling position.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hemebond/PyWO/internal/platform"
)

// Context carries the desktop-level facts a predicate may need beyond
// the snapshot itself.
type Context struct {
	CurrentDesktop int
}

// Expression matches windows. Implementations are immutable and safe
// to share between goroutines.
type Expression interface {
	// Match reports whether the snapshot satisfies the predicate.
	// Evaluation is total: comparisons against attributes a window
	// does not have are false, never errors.
	Match(s platform.Snapshot, ctx Context) bool

	// Key returns a canonical identity for the expression. Two
	// expressions selecting by the same criteria return equal keys.
	Key() string
}

// Select returns the snapshots matching expr, preserving input order.
func Select(expr Expression, snapshots []platform.Snapshot, ctx Context) []platform.Snapshot {
	var out []platform.Snapshot
	for _, s := range snapshots {
		if expr.Match(s, ctx) {
			out = append(out, s)
		}
	}
	return out
}

type activeExpr struct{}

func (activeExpr) Match(s platform.Snapshot, _ Context) bool { return s.Active }
func (activeExpr) Key() string                               { return "active" }

// Active matches the focused window.
func Active() Expression { return activeExpr{} }

type desktopExpr struct{ desktop int }

func (e desktopExpr) Match(s platform.Snapshot, _ Context) bool {
	// A sticky window has no single desktop to compare against.
	if s.Sticky() {
		return false
	}
	return s.Desktop == e.desktop
}

func (e desktopExpr) Key() string { return fmt.Sprintf("desktop=%d", e.desktop) }

// OnDesktop matches windows placed on the given desktop. Sticky
// windows never match.
func OnDesktop(desktop int) Expression { return desktopExpr{desktop: desktop} }

type currentDesktopExpr struct{}

func (currentDesktopExpr) Match(s platform.Snapshot, ctx Context) bool {
	return s.Sticky() || s.Desktop == ctx.CurrentDesktop
}

func (currentDesktopExpr) Key() string { return "current-desktop" }

// OnCurrentDesktop matches windows visible on the current desktop,
// sticky windows included.
func OnCurrentDesktop() Expression { return currentDesktopExpr{} }

type hasStateExpr struct{ mask platform.State }

func (e hasStateExpr) Match(s platform.Snapshot, _ Context) bool { return s.State.Has(e.mask) }
func (e hasStateExpr) Key() string                               { return "state+" + e.mask.String() }

// HasState matches windows with every given state flag set.
func HasState(mask platform.State) Expression { return hasStateExpr{mask: mask} }

type lacksStateExpr struct{ mask platform.State }

func (e lacksStateExpr) Match(s platform.Snapshot, _ Context) bool { return !s.State.HasAny(e.mask) }
func (e lacksStateExpr) Key() string                               { return "state-" + e.mask.String() }

// LacksState matches windows with none of the given state flags set.
func LacksState(mask platform.State) Expression { return lacksStateExpr{mask: mask} }

type typeExpr struct{ types []platform.TypeClass }

func (e typeExpr) Match(s platform.Snapshot, _ Context) bool {
	for _, t := range e.types {
		if s.Type == t {
			return true
		}
	}
	return false
}

func (e typeExpr) Key() string {
	names := make([]string, len(e.types))
	for i, t := range e.types {
		names[i] = string(t)
	}
	sort.Strings(names)
	return "type=" + strings.Join(names, ",")
}

// TypeIs matches windows whose type is any of the given classes.
func TypeIs(types ...platform.TypeClass) Expression {
	return typeExpr{types: append([]platform.TypeClass(nil), types...)}
}

type classExpr struct{ names []string }

func (e classExpr) Match(s platform.Snapshot, _ Context) bool {
	class := strings.ToLower(s.Class)
	for _, name := range e.names {
		if class == name {
			return true
		}
	}
	return false
}

func (e classExpr) Key() string {
	sorted := append([]string(nil), e.names...)
	sort.Strings(sorted)
	return "class=" + strings.Join(sorted, ",")
}

// ClassIs matches windows by application class, case-insensitively.
func ClassIs(names ...string) Expression {
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}
	return classExpr{names: lowered}
}

type pointExpr struct{ x, y int }

func (e pointExpr) Match(s platform.Snapshot, _ Context) bool {
	return s.Geometry.ContainsPoint(e.x, e.y)
}

func (e pointExpr) Key() string { return fmt.Sprintf("point=%d,%d", e.x, e.y) }

// ContainsPoint matches windows whose geometry covers the point.
func ContainsPoint(x, y int) Expression { return pointExpr{x: x, y: y} }

type idExpr struct{ ids []platform.WindowID }

func (e idExpr) Match(s platform.Snapshot, _ Context) bool {
	for _, id := range e.ids {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (e idExpr) Key() string {
	sorted := append([]platform.WindowID(nil), e.ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "id=" + strings.Join(parts, ",")
}

// IDIn matches windows by explicit id.
func IDIn(ids ...platform.WindowID) Expression {
	return idExpr{ids: append([]platform.WindowID(nil), ids...)}
}

type andExpr struct{ children []Expression }

func (e andExpr) Match(s platform.Snapshot, ctx Context) bool {
	for _, c := range e.children {
		if !c.Match(s, ctx) {
			return false
		}
	}
	return true
}

func (e andExpr) Key() string { return compositeKey("and", e.children) }

// And matches windows satisfying every child expression.
func And(children ...Expression) Expression {
	if len(children) == 1 {
		return children[0]
	}
	return andExpr{children: append([]Expression(nil), children...)}
}

type orExpr struct{ children []Expression }

func (e orExpr) Match(s platform.Snapshot, ctx Context) bool {
	for _, c := range e.children {
		if c.Match(s, ctx) {
			return true
		}
	}
	return false
}

func (e orExpr) Key() string { return compositeKey("or", e.children) }

// Or matches windows satisfying at least one child expression.
func Or(children ...Expression) Expression {
	if len(children) == 1 {
		return children[0]
	}
	return orExpr{children: append([]Expression(nil), children...)}
}

type notExpr struct{ child Expression }

func (e notExpr) Match(s platform.Snapshot, ctx Context) bool { return !e.child.Match(s, ctx) }
func (e notExpr) Key() string                                 { return "not(" + e.child.Key() + ")" }

// Not inverts an expression.
func Not(child Expression) Expression { return notExpr{child: child} }

func compositeKey(op string, children []Expression) string {
	keys := make([]string, len(children))
	for i, c := range children {
		keys[i] = c.Key()
	}
	return op + "(" + strings.Join(keys, ",") + ")"
}

// Standard matches ordinary application windows: normal or dialog
// type, not minimized, shaded or hidden. Docks, desktops and other
// furniture never match.
func Standard() Expression {
	return And(
		TypeIs(platform.TypeNormal, platform.TypeDialog),
		LacksState(platform.StateMinimized|platform.StateShaded|platform.StateHidden),
	)
}

// Workspace matches standard windows visible on the current desktop.
// It is the implicit target of actions configured without a filter.
func Workspace() Expression {
	return And(Standard(), OnCurrentDesktop())
}
