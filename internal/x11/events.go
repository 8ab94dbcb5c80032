package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ListenRoot subscribes to property and substructure events on the
// root window. Must be called once before OnRootProperty fires.
func (c *Connection) ListenRoot() error {
	return xwindow.New(c.XUtil, c.Root).Listen(
		xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange)
}

// OnRootProperty registers fn for every property change on the root
// window, called with the atom name. Callbacks run on the event loop
// goroutine and must not block.
func (c *Connection) OnRootProperty(fn func(atom string)) {
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, e xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, e.Atom)
		if err != nil {
			return
		}
		fn(name)
	}).Connect(c.XUtil, c.Root)
}

// ListenWindow subscribes to structure and property events on one
// client window so per-window callbacks fire.
func (c *Connection) ListenWindow(windowID xproto.Window) error {
	return xwindow.New(c.XUtil, windowID).Listen(
		xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange)
}

// OnWindowProperty registers fn for property changes on one window,
// called with the atom name.
func (c *Connection) OnWindowProperty(windowID xproto.Window, fn func(atom string)) {
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, e xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, e.Atom)
		if err != nil {
			return
		}
		fn(name)
	}).Connect(c.XUtil, windowID)
}

// OnWindowConfigure registers fn for geometry changes on one window.
func (c *Connection) OnWindowConfigure(windowID xproto.Window, fn func()) {
	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, e xevent.ConfigureNotifyEvent) {
		fn()
	}).Connect(c.XUtil, windowID)
}

// DetachWindow drops all callbacks registered for a window. Call when
// the window leaves the client list, or the callback tables leak.
func (c *Connection) DetachWindow(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}
