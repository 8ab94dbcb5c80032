//go:build linux

package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	log "github.com/sirupsen/logrus"

	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/x11"
)

// Confirmation polling for applied commands. WMs act on requests
// asynchronously, so outcomes are observed rather than returned.
const (
	applyTimeout  = 2 * time.Second
	applyInterval = 10 * time.Millisecond
)

// atomStates maps _NET_WM_STATE atom names onto state flags.
var atomStates = map[string]State{
	"_NET_WM_STATE_MAXIMIZED_HORZ":    StateMaximizedHorz,
	"_NET_WM_STATE_MAXIMIZED_VERT":    StateMaximizedVert,
	"_NET_WM_STATE_FULLSCREEN":        StateFullscreen,
	"_NET_WM_STATE_STICKY":            StateSticky,
	"_NET_WM_STATE_SHADED":            StateShaded,
	"_NET_WM_STATE_ABOVE":             StateAbove,
	"_NET_WM_STATE_BELOW":             StateBelow,
	"_NET_WM_STATE_DEMANDS_ATTENTION": StateDemandsAttention,
	"_NET_WM_STATE_HIDDEN":            StateHidden,
}

// requestAtoms lists the flags that can be requested per EWMH, with
// the atom to send. Minimized and hidden have no _NET_WM_STATE
// request; minimizing goes through WM_CHANGE_STATE instead.
var requestAtoms = map[State]string{
	StateMaximizedHorz:    "_NET_WM_STATE_MAXIMIZED_HORZ",
	StateMaximizedVert:    "_NET_WM_STATE_MAXIMIZED_VERT",
	StateFullscreen:       "_NET_WM_STATE_FULLSCREEN",
	StateSticky:           "_NET_WM_STATE_STICKY",
	StateShaded:           "_NET_WM_STATE_SHADED",
	StateAbove:            "_NET_WM_STATE_ABOVE",
	StateBelow:            "_NET_WM_STATE_BELOW",
	StateDemandsAttention: "_NET_WM_STATE_DEMANDS_ATTENTION",
}

// typeClasses maps _NET_WM_WINDOW_TYPE atom names onto type classes.
var typeClasses = map[string]TypeClass{
	"_NET_WM_WINDOW_TYPE_NORMAL":        TypeNormal,
	"_NET_WM_WINDOW_TYPE_DIALOG":        TypeDialog,
	"_NET_WM_WINDOW_TYPE_UTILITY":       TypeUtility,
	"_NET_WM_WINDOW_TYPE_SPLASH":        TypeSplash,
	"_NET_WM_WINDOW_TYPE_DESKTOP":       TypeDesktop,
	"_NET_WM_WINDOW_TYPE_DOCK":          TypeDock,
	"_NET_WM_WINDOW_TYPE_TOOLBAR":       TypeToolbar,
	"_NET_WM_WINDOW_TYPE_MENU":          TypeMenu,
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": TypeMenu,
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    TypeMenu,
}

// X implements Backend on an X11 connection. The connection is shared
// with the hotkey layer, which registers on the same event loop.
type X struct {
	conn *x11.Connection

	mu      sync.Mutex
	known   []xproto.Window
	watched map[xproto.Window]bool
	emit    func(Event)
}

var _ Backend = (*X)(nil)

// NewX wraps an established X11 connection.
func NewX(conn *x11.Connection) *X {
	return &X{
		conn:    conn,
		watched: make(map[xproto.Window]bool),
	}
}

func (x *X) ListWindows() ([]Snapshot, error) {
	stacked, err := x.conn.StackingList()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	active, _ := x.conn.ActiveWindow()

	snaps := make([]Snapshot, 0, len(stacked))
	for _, win := range stacked {
		info, err := x.conn.WindowInfo(win)
		if err != nil {
			// Window vanished between the list read and the property
			// reads. The next event will settle the bookkeeping.
			log.Debug("Skipped vanished window [", win, "]")
			continue
		}
		snaps = append(snaps, snapshotFrom(info, active))
	}
	return snaps, nil
}

// ActiveWindow returns 0 when no window holds focus, including when
// the WM has not published _NET_ACTIVE_WINDOW yet.
func (x *X) ActiveWindow() (WindowID, error) {
	active, err := x.conn.ActiveWindow()
	if err != nil {
		return 0, nil
	}
	return WindowID(active), nil
}

func (x *X) Viewport() (geometry.Rect, error) {
	area, err := x.conn.ActiveViewport()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return area, nil
}

func (x *X) CurrentDesktop() (int, error) {
	return x.conn.CurrentDesktop()
}

// Apply issues the command's requests and polls until the WM reflects
// them, delivering one error value on the returned channel.
func (x *X) Apply(cmd Command) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- x.apply(cmd)
	}()
	return done
}

func (x *X) apply(cmd Command) error {
	win := xproto.Window(cmd.Window)

	before, err := x.conn.WindowInfo(win)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStaleReference, err)
	}
	current := stateFrom(before)

	if cmd.StateMask != 0 {
		if err := x.applyState(win, current, cmd.StateMask, cmd.StateMode); err != nil {
			return err
		}
	}
	if cmd.Geometry != nil {
		g := *cmd.Geometry
		if err := x.conn.MoveResize(win, g.X, g.Y, g.Width, g.Height); err != nil {
			return err
		}
	}
	if cmd.Activate {
		if err := x.conn.Activate(win); err != nil {
			return err
		}
	}

	return x.awaitSettled(win, before, current, cmd)
}

// applyState translates a state mask change into EWMH requests.
// Minimizing is special-cased through WM_CHANGE_STATE, and the two
// maximize axes ride one message so they change atomically.
func (x *X) applyState(win xproto.Window, current, mask State, mode Mode) error {
	if mask.HasAny(StateMinimized | StateHidden) {
		mask &^= StateMinimized | StateHidden
		iconify := mode == ModeSet ||
			(mode == ModeToggle && !current.Has(StateMinimized))
		var err error
		if iconify {
			err = x.conn.Iconify(win)
		} else {
			// Activating a window deiconifies it.
			err = x.conn.Activate(win)
		}
		if err != nil {
			return err
		}
	}

	action := x11.StateRemove
	switch mode {
	case ModeSet:
		action = x11.StateAdd
	case ModeToggle:
		action = x11.StateToggle
	}

	if mask.Has(StateMaximized) {
		mask &^= StateMaximized
		err := x.conn.ChangeState(win, action,
			requestAtoms[StateMaximizedHorz], requestAtoms[StateMaximizedVert])
		if err != nil {
			return err
		}
	}
	for flag, atom := range requestAtoms {
		if !mask.Has(flag) {
			continue
		}
		if err := x.conn.ChangeState(win, action, atom); err != nil {
			return err
		}
	}
	return nil
}

// awaitSettled polls the window until every part of the command is
// reflected by the WM. Geometry counts as settled once the frame rect
// moved off its old value; WMs with size increment hints never land
// exactly on the requested rect.
func (x *X) awaitSettled(win xproto.Window, before *x11.WindowInfo, oldState State, cmd Command) error {
	wantState := cmd.StateMode.Combine(oldState, cmd.StateMask) & cmd.StateMask

	deadline := time.Now().Add(applyTimeout)
	for {
		info, err := x.conn.WindowInfo(win)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStaleReference, err)
		}

		settled := true
		if cmd.Geometry != nil && *cmd.Geometry != before.Rect && info.Rect == before.Rect {
			settled = false
		}
		if cmd.StateMask != 0 && stateFrom(info)&cmd.StateMask != wantState {
			settled = false
		}
		if cmd.Activate {
			if active, err := x.conn.ActiveWindow(); err != nil || active != win {
				settled = false
			}
		}
		if settled {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("window %d did not settle within %v", win, applyTimeout)
		}
		time.Sleep(applyInterval)
	}
}

// Watch registers the event callback, seeds the client list and starts
// listening on the root window. Per-window listeners are attached as
// windows appear.
func (x *X) Watch(fn func(Event)) error {
	if err := x.conn.ListenRoot(); err != nil {
		return err
	}

	x.mu.Lock()
	x.emit = fn
	x.mu.Unlock()

	if stacked, err := x.conn.StackingList(); err == nil {
		x.mu.Lock()
		x.known = stacked
		x.mu.Unlock()
		for _, win := range stacked {
			x.watchWindow(win)
		}
	}

	x.conn.OnRootProperty(x.rootChanged)
	return nil
}

func (x *X) EventLoop() {
	x.conn.EventLoop()
}

func (x *X) Disconnect() {
	x.conn.Quit()
	x.conn.Close()
}

// rootChanged translates root property updates into events. Membership
// changes come from the stacking list property, which also fires on
// plain restacks; the diff suppresses those.
func (x *X) rootChanged(atom string) {
	switch atom {
	case "_NET_CLIENT_LIST_STACKING":
		x.diffClientList()
	case "_NET_CURRENT_DESKTOP":
		x.notify(Event{Kind: EventDesktopSwitched})
	case "_NET_WORKAREA", "_NET_DESKTOP_GEOMETRY":
		x.notify(Event{Kind: EventViewportChanged})
	case "_NET_ACTIVE_WINDOW":
		if active, err := x.conn.ActiveWindow(); err == nil && active != 0 {
			x.notify(Event{Kind: EventWindowChanged, Window: WindowID(active)})
		}
	}
}

func (x *X) diffClientList() {
	next, err := x.conn.StackingList()
	if err != nil {
		return
	}

	x.mu.Lock()
	prev := x.known
	x.known = next
	x.mu.Unlock()

	nextSet := make(map[xproto.Window]bool, len(next))
	for _, win := range next {
		nextSet[win] = true
	}
	prevSet := make(map[xproto.Window]bool, len(prev))
	for _, win := range prev {
		prevSet[win] = true
	}

	for _, win := range prev {
		if nextSet[win] {
			continue
		}
		x.conn.DetachWindow(win)
		x.mu.Lock()
		delete(x.watched, win)
		x.mu.Unlock()
		x.notify(Event{Kind: EventWindowDestroyed, Window: WindowID(win)})
	}
	for _, win := range next {
		if prevSet[win] {
			continue
		}
		x.watchWindow(win)
		x.notify(Event{Kind: EventWindowCreated, Window: WindowID(win)})
	}
}

// watchWindow attaches state, desktop and geometry listeners to one
// window so its changes surface as events.
func (x *X) watchWindow(win xproto.Window) {
	x.mu.Lock()
	if x.watched[win] {
		x.mu.Unlock()
		return
	}
	x.watched[win] = true
	x.mu.Unlock()

	if err := x.conn.ListenWindow(win); err != nil {
		log.Debug("Cannot listen on window [", win, "]")
		return
	}
	x.conn.OnWindowProperty(win, func(atom string) {
		switch atom {
		case "_NET_WM_STATE", "_NET_WM_DESKTOP", "_NET_WM_NAME", "WM_NAME":
			x.notify(Event{Kind: EventWindowChanged, Window: WindowID(win)})
		}
	})
	x.conn.OnWindowConfigure(win, func() {
		x.notify(Event{Kind: EventWindowChanged, Window: WindowID(win)})
	})
}

func (x *X) notify(ev Event) {
	x.mu.Lock()
	fn := x.emit
	x.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func snapshotFrom(info *x11.WindowInfo, active xproto.Window) Snapshot {
	return Snapshot{
		ID:       WindowID(info.ID),
		Title:    info.Title,
		Class:    info.Class,
		Type:     typeClassFor(info.Types),
		Desktop:  info.Desktop,
		Geometry: info.Rect,
		State:    stateFrom(info),
		Active:   active != 0 && info.ID == active,
	}
}

func stateFrom(info *x11.WindowInfo) State {
	var s State
	for _, atom := range info.States {
		if flag, ok := atomStates[atom]; ok {
			s |= flag
		}
	}
	if info.Iconified || (s.Has(StateHidden) && !s.Has(StateShaded)) {
		s |= StateMinimized
	}
	return s
}

// typeClassFor picks the first recognized type atom. Windows that set
// no type at all are treated as normal, per EWMH.
func typeClassFor(types []string) TypeClass {
	for _, atom := range types {
		if tc, ok := typeClasses[atom]; ok {
			return tc
		}
	}
	if len(types) == 0 {
		return TypeNormal
	}
	return TypeUnknown
}
