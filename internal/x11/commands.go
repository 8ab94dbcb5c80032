package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// _NET_WM_STATE actions, re-exported so callers need not import ewmh.
const (
	StateRemove = ewmh.StateRemove
	StateAdd    = ewmh.StateAdd
	StateToggle = ewmh.StateToggle
)

// sourceIndication marks requests as coming from a pager or direct
// user action, which WMs honor more readily than application requests.
const sourceIndication = 2

// MoveResize places a window so its outer frame covers rect. The frame
// extents are subtracted before asking the WM, which sizes the client
// area; maximized and fullscreen states are cleared first because WMs
// ignore geometry requests while they are set.
func (c *Connection) MoveResize(windowID xproto.Window, x, y, width, height int) error {
	c.clearGeometryLocks(windowID)

	left, right, top, bottom := c.Extents(windowID)
	clientW := max(width-(left+right), 1)
	clientH := max(height-(top+bottom), 1)

	err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, clientW, clientH)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, clientW, clientH)
	}
	return nil
}

// clearGeometryLocks removes maximized and fullscreen states so a
// following move/resize request takes effect.
func (c *Connection) clearGeometryLocks(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	hasMaxH, hasMaxV, hasFull := false, false, false
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			hasMaxH = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			hasMaxV = true
		case "_NET_WM_STATE_FULLSCREEN":
			hasFull = true
		}
	}
	if hasMaxH || hasMaxV {
		ewmh.WmStateReqExtra(c.XUtil, windowID, ewmh.StateRemove,
			"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT", sourceIndication)
	}
	if hasFull {
		ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_FULLSCREEN")
	}
}

// ChangeState sends a _NET_WM_STATE request for up to two state atoms.
// EWMH allows pairing two properties in one message, which keeps
// maximize horz+vert atomic.
func (c *Connection) ChangeState(windowID xproto.Window, action int, atoms ...string) error {
	switch len(atoms) {
	case 1:
		return ewmh.WmStateReq(c.XUtil, windowID, action, atoms[0])
	case 2:
		return ewmh.WmStateReqExtra(c.XUtil, windowID, action, atoms[0], atoms[1], sourceIndication)
	default:
		return fmt.Errorf("state request needs 1 or 2 atoms, got %d", len(atoms))
	}
}

// Activate focuses and raises a window using _NET_ACTIVE_WINDOW.
// The message is built manually because the xgbutil ewmh helper panics
// on this library version (uint vs int type assertion).
func (c *Connection) Activate(windowID xproto.Window) error {
	return c.sendClientMessage(windowID, "_NET_ACTIVE_WINDOW", sourceIndication, 0, 0, 0, 0)
}

// SetDesktop moves a window to the given virtual desktop, -1 pins it to
// all desktops. Built manually for the same reason as Activate.
func (c *Connection) SetDesktop(windowID xproto.Window, desktop int) error {
	target := uint32(desktop)
	if desktop < 0 {
		target = stickyDesktop
	}
	return c.sendClientMessage(windowID, "_NET_WM_DESKTOP", target, sourceIndication, 0, 0, 0)
}

// Iconify minimizes a window via the ICCCM WM_CHANGE_STATE message.
// There is no EWMH state for this direction; deiconifying is done by
// activating the window.
func (c *Connection) Iconify(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendClientMessage(windowID, "WM_CHANGE_STATE", iconicState, 0, 0, 0, 0)
}

// sendClientMessage delivers a 32-bit format client message to the
// root window on behalf of windowID, per the EWMH request convention.
func (c *Connection) sendClientMessage(windowID xproto.Window, atomName string, data ...uint32) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
