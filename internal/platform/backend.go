// Package platform abstracts the window system behind snapshots,
// commands and an event stream, keeping the higher layers free of
// X11 types.
package platform

import (
	"errors"

	"github.com/hemebond/PyWO/internal/geometry"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// DesktopAll marks a window visible on every virtual desktop.
const DesktopAll = -1

// Sentinel errors reported by backends.
var (
	// ErrSourceUnavailable means the window system cannot be queried
	// at all. Nothing read alongside it can be trusted.
	ErrSourceUnavailable = errors.New("window source unavailable")

	// ErrStaleReference means a window disappeared between being
	// snapshotted and being addressed.
	ErrStaleReference = errors.New("stale window reference")
)

// Snapshot is a point-in-time record of one top-level window. It is
// never updated in place; a fresh read produces fresh snapshots.
type Snapshot struct {
	ID       WindowID
	Title    string
	Class    string
	Type     TypeClass
	Desktop  int
	Geometry geometry.Rect
	State    State
	Active   bool
}

// Sticky reports whether the window is pinned to all desktops.
func (s Snapshot) Sticky() bool {
	return s.Desktop == DesktopAll || s.State.Has(StateSticky)
}

// Command is one fully resolved mutation of a single window. Fields
// left at their zero value are not touched.
type Command struct {
	Window    WindowID
	Geometry  *geometry.Rect
	StateMask State
	StateMode Mode
	Activate  bool
}

// Empty reports whether the command would change nothing.
func (c Command) Empty() bool {
	return c.Geometry == nil && c.StateMask == 0 && !c.Activate
}

// EventKind tags a change reported by the window system.
type EventKind int

const (
	EventWindowCreated EventKind = iota
	EventWindowDestroyed
	EventWindowChanged
	EventDesktopSwitched
	EventViewportChanged
)

func (k EventKind) String() string {
	switch k {
	case EventWindowCreated:
		return "window-created"
	case EventWindowDestroyed:
		return "window-destroyed"
	case EventWindowChanged:
		return "window-changed"
	case EventDesktopSwitched:
		return "desktop-switched"
	case EventViewportChanged:
		return "viewport-changed"
	}
	return "unknown"
}

// Event is one asynchronous change notification. Window is zero for
// events that are not about a particular window.
type Event struct {
	Kind   EventKind
	Window WindowID
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	// ListWindows returns snapshots of all managed windows in
	// stacking order, topmost first.
	ListWindows() ([]Snapshot, error)

	// ActiveWindow returns the focused window, or 0 if none.
	ActiveWindow() (WindowID, error)

	// Viewport returns the usable work area of the screen holding
	// the active window. It is read fresh on every call.
	Viewport() (geometry.Rect, error)

	// CurrentDesktop returns the visible virtual desktop index.
	CurrentDesktop() (int, error)

	// Apply executes a command. The returned channel yields exactly
	// one value once the window system has confirmed or rejected the
	// change, then closes.
	Apply(Command) <-chan error

	// Watch registers a callback for change events. The callback
	// runs on the event loop goroutine and must not block.
	Watch(func(Event)) error

	// EventLoop processes window-system events until Disconnect.
	EventLoop()

	// Disconnect stops the event loop and releases the connection.
	Disconnect()
}
