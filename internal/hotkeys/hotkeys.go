// Package hotkeys grabs global key chords and turns them into action
// requests. Lock modifiers (Caps, Num, Scroll) are ignored so chords
// fire regardless of keyboard LED state.
package hotkeys

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	log "github.com/sirupsen/logrus"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/x11"
)

// Enqueuer accepts stamped requests for dispatch.
type Enqueuer interface {
	Enqueue(actions.Request) error
}

// Manager owns the key grabs for one X connection. Callbacks run on
// the X event loop, so they only stamp and enqueue.
type Manager struct {
	conn *x11.Connection
	sink Enqueuer

	mu    sync.Mutex
	bound int
}

var ignoreModsOnce sync.Once

// NewManager prepares grabbing on an established connection.
func NewManager(conn *x11.Connection, sink Enqueuer) *Manager {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Manager{conn: conn, sink: sink}
}

// Bind grabs every compiled binding's chord. Already-bound chords are
// released first, so a reload replaces the whole set.
func (m *Manager) Bind(bindings []config.CompiledBinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bound > 0 {
		keybind.Detach(m.conn.XUtil, m.conn.Root)
		m.bound = 0
	}

	for _, b := range bindings {
		b := b
		err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
			req := b.Request
			req.Stamp("hotkey")
			if err := m.sink.Enqueue(req); err != nil {
				log.Warn("Dropped hotkey action ", b.Action, " [", err, "]")
			}
		}).Connect(m.conn.XUtil, m.conn.Root, b.Keys, true)
		if err != nil {
			return fmt.Errorf("failed to bind %q: %w", b.Keys, err)
		}
		m.bound++
		log.Debug("Bound ", b.Keys, " [", b.Action, "]")
	}

	log.Info("Grabbed ", m.bound, " hotkeys")
	return nil
}

// Unbind releases every grab.
func (m *Manager) Unbind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bound > 0 {
		keybind.Detach(m.conn.XUtil, m.conn.Root)
		m.bound = 0
	}
}

// configureIgnoreMods teaches xevent to treat every combination of the
// lock modifiers as equivalent to none, so grabs match with NumLock or
// CapsLock held.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
