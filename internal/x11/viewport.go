package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/hemebond/PyWO/internal/geometry"
)

// Monitor represents a physical display.
type Monitor struct {
	ID   int
	Name string
	Rect geometry.Rect
}

// Monitors retrieves all active monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := c.initRandR(); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			name = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:   i,
			Name: name,
			Rect: geometry.Rect{
				X:      int(crtcInfo.X),
				Y:      int(crtcInfo.Y),
				Width:  int(crtcInfo.Width),
				Height: int(crtcInfo.Height),
			},
		})
	}

	return monitors, nil
}

// ActiveViewport returns the usable work area of the active monitor.
// The monitor holding the focused window wins, then the one under the
// pointer, then the first. Dock and panel struts are carved out; WMs
// that publish no struts fall back to the _NET_WORKAREA intersection.
func (c *Connection) ActiveViewport() (geometry.Rect, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return geometry.Rect{}, err
	}
	if len(monitors) == 0 {
		return geometry.Rect{}, fmt.Errorf("no monitors found")
	}

	area := monitors[0].Rect
	if active, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && active != 0 {
		if mon, ok := c.monitorForWindow(monitors, active); ok {
			area = mon
		} else if mon, ok := c.monitorForPointer(monitors); ok {
			area = mon
		}
	} else if mon, ok := c.monitorForPointer(monitors); ok {
		area = mon
	}

	if carved, ok := c.subtractStruts(area); ok {
		return carved, nil
	}
	return c.workareaFallback(area), nil
}

// monitorForWindow finds the monitor holding the window's center.
func (c *Connection) monitorForWindow(monitors []Monitor, windowID xproto.Window) (geometry.Rect, bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}

	centerX := int(translate.DstX) + int(geom.Width)/2
	centerY := int(translate.DstY) + int(geom.Height)/2
	for _, mon := range monitors {
		if mon.Rect.ContainsPoint(centerX, centerY) {
			return mon.Rect, true
		}
	}
	return geometry.Rect{}, false
}

// monitorForPointer finds the monitor under the mouse cursor.
func (c *Connection) monitorForPointer(monitors []Monitor) (geometry.Rect, bool) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	for _, mon := range monitors {
		if mon.Rect.ContainsPoint(int(pointer.RootX), int(pointer.RootY)) {
			return mon.Rect, true
		}
	}
	return geometry.Rect{}, false
}

// subtractStruts carves dock and panel reservations out of the monitor
// rect. Struts are published relative to the whole root window, so each
// side's band is intersected with the monitor before it counts. Reports
// false when no client reserves anything, so the caller can fall back
// to _NET_WORKAREA.
func (c *Connection) subtractStruts(monitor geometry.Rect) (geometry.Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return monitor, false
	}
	rootW := int(rootGeom.Width)
	rootH := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return monitor, false
	}

	var left, right, top, bottom int
	for _, windowID := range clients {
		sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID)
		if err != nil {
			// Some panels only set the older _NET_WM_STRUT, which
			// reserves the full length of each side.
			s, err := ewmh.WmStrutGet(c.XUtil, windowID)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftStartY: 0, LeftEndY: uint(rootH - 1),
				RightStartY: 0, RightEndY: uint(rootH - 1),
				TopStartX: 0, TopEndX: uint(rootW - 1),
				BottomStartX: 0, BottomEndX: uint(rootW - 1),
			}
		}

		if band := monitor.Intersect(strutBand(geometry.EdgeLeft, rootW, rootH, sp)); !band.Empty() {
			left = max(left, band.X2()-monitor.X)
		}
		if band := monitor.Intersect(strutBand(geometry.EdgeRight, rootW, rootH, sp)); !band.Empty() {
			right = max(right, monitor.X2()-band.X)
		}
		if band := monitor.Intersect(strutBand(geometry.EdgeTop, rootW, rootH, sp)); !band.Empty() {
			top = max(top, band.Y2()-monitor.Y)
		}
		if band := monitor.Intersect(strutBand(geometry.EdgeBottom, rootW, rootH, sp)); !band.Empty() {
			bottom = max(bottom, monitor.Y2()-band.Y)
		}
	}

	if left == 0 && right == 0 && top == 0 && bottom == 0 {
		return monitor, false
	}

	monitor.X += left
	monitor.Y += top
	monitor.Width = max(monitor.Width-(left+right), 1)
	monitor.Height = max(monitor.Height-(top+bottom), 1)
	return monitor, true
}

// strutBand builds the root-relative rectangle one side of a strut
// reserves. The end coordinates are inclusive per the EWMH spec.
func strutBand(side geometry.Edge, rootW, rootH int, sp *ewmh.WmStrutPartial) geometry.Rect {
	switch side {
	case geometry.EdgeLeft:
		return geometry.Rect{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1}
	case geometry.EdgeRight:
		return geometry.Rect{X: rootW - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1}
	case geometry.EdgeTop:
		return geometry.Rect{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top)}
	case geometry.EdgeBottom:
		return geometry.Rect{X: int(sp.BottomStartX), Y: rootH - int(sp.Bottom), Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom)}
	}
	return geometry.Rect{}
}

// workareaFallback clips the monitor against the current desktop's
// _NET_WORKAREA entry. On multi-head setups the workarea spans all
// monitors, so only the intersection is useful.
func (c *Connection) workareaFallback(monitor geometry.Rect) geometry.Rect {
	workareas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workareas) == 0 {
		return monitor
	}

	index := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workareas) {
		index = int(current)
	}

	wa := workareas[index]
	clipped := monitor.Intersect(geometry.Rect{
		X:      wa.X,
		Y:      wa.Y,
		Width:  int(wa.Width),
		Height: int(wa.Height),
	})
	if clipped.Empty() {
		return monitor
	}
	return clipped
}
