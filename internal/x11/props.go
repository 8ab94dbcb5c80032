package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/hemebond/PyWO/internal/geometry"
)

// stickyDesktop is the _NET_WM_DESKTOP value for windows pinned to all
// desktops.
const stickyDesktop = 0xFFFFFFFF

// WindowInfo is one window's properties as read from the server. Types
// and States carry raw atom names; Desktop is -1 for sticky windows.
// Rect is the outer frame geometry in root coordinates. Iconified
// comes from the ICCCM WM_STATE property, which is the authoritative
// minimized signal (EWMH only exposes the broader HIDDEN state).
type WindowInfo struct {
	ID        xproto.Window
	Title     string
	Class     string
	Types     []string
	States    []string
	Desktop   int
	Iconified bool
	Rect      geometry.Rect
}

// StackingList returns all managed windows ordered topmost first.
// Uses _NET_CLIENT_LIST_STACKING, which the WM keeps bottom-to-top.
func (c *Connection) StackingList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stacking list: %w", err)
	}
	stacked := make([]xproto.Window, len(clients))
	for i, win := range clients {
		stacked[len(clients)-1-i] = win
	}
	return stacked, nil
}

// ActiveWindow returns the currently focused window, or 0 if none.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// CurrentDesktop returns the current virtual desktop number (0-indexed).
func (c *Connection) CurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// DesktopCount returns the number of virtual desktops.
func (c *Connection) DesktopCount() (int, error) {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get desktop count: %w", err)
	}
	return int(count), nil
}

// WindowInfo reads one window's properties. Missing properties get
// defaults (empty title, current desktop); a failed geometry read means
// the window is gone and is returned as an error.
func (c *Connection) WindowInfo(windowID xproto.Window) (*WindowInfo, error) {
	info := &WindowInfo{ID: windowID}

	// Outer frame geometry. DecorGeometry walks up to the WM frame, so
	// the rect covers decorations and sits in root coordinates.
	rect, err := xwindow.New(c.XUtil, windowID).DecorGeometry()
	if err != nil {
		return nil, fmt.Errorf("failed to get geometry for %d: %w", windowID, err)
	}
	info.Rect = geometry.Rect{X: rect.X(), Y: rect.Y(), Width: rect.Width(), Height: rect.Height()}

	// _NET_WM_NAME with the ICCCM WM_NAME fallback for older clients.
	if name, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && name != "" {
		info.Title = name
	} else if name, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		info.Title = name
	}

	if class, err := icccm.WmClassGet(c.XUtil, windowID); err == nil {
		info.Class = class.Class
	}

	if types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID); err == nil {
		info.Types = types
	}
	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
		info.States = states
	}
	if wmState, err := icccm.WmStateGet(c.XUtil, windowID); err == nil {
		info.Iconified = wmState.State == icccm.StateIconic
	}

	info.Desktop = c.windowDesktop(windowID)

	return info, nil
}

// windowDesktop returns the desktop a window is on, -1 for sticky.
// Windows without the property are treated as being on the current
// desktop.
func (c *Connection) windowDesktop(windowID xproto.Window) int {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		current, err := ewmh.CurrentDesktopGet(c.XUtil)
		if err != nil {
			return 0
		}
		return int(current)
	}
	if desktop == stickyDesktop {
		return -1
	}
	return int(desktop)
}

// Extents returns the window decoration sizes, zeros when the WM does
// not report them.
func (c *Connection) Extents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0
	}
	return extents.Left, extents.Right, extents.Top, extents.Bottom
}
