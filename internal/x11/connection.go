// Package x11 wraps the xgb/xgbutil connection and the EWMH and ICCCM
// calls the organizer needs: reading the stacking order and per-window
// properties, applying geometry and state changes, and watching the
// root window for changes.
//
// The package stays at the protocol level. It traffics in xproto.Window
// identifiers and raw atom name strings; mapping those onto the
// organizer's own window model happens one layer up.
package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	randrOnce sync.Once
	randrErr  error
}

// NewConnection establishes a connection to the X11 server and
// initializes required extensions.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// initRandR loads the RandR extension on first use. Monitor queries
// work without it only on single-head setups.
func (c *Connection) initRandR() error {
	c.randrOnce.Do(func() {
		c.randrErr = randr.Init(c.XUtil.Conn())
	})
	return c.randrErr
}

// EventLoop starts the main X11 event loop (blocking).
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit stops the event loop started by EventLoop.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
