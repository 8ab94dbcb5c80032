package platform

import "strings"

// State is a bitmask of window states mirrored from the window manager.
type State uint32

const (
	StateMaximizedHorz State = 1 << iota
	StateMaximizedVert
	StateFullscreen
	StateSticky
	StateShaded
	StateMinimized
	StateAbove
	StateBelow
	StateDemandsAttention
	StateHidden
)

// StateMaximized combines both maximization axes.
const StateMaximized = StateMaximizedHorz | StateMaximizedVert

var stateNames = []struct {
	flag State
	name string
}{
	{StateMaximizedHorz, "maximized_horz"},
	{StateMaximizedVert, "maximized_vert"},
	{StateFullscreen, "fullscreen"},
	{StateSticky, "sticky"},
	{StateShaded, "shaded"},
	{StateMinimized, "minimized"},
	{StateAbove, "above"},
	{StateBelow, "below"},
	{StateDemandsAttention, "demands_attention"},
	{StateHidden, "hidden"},
}

// Has reports whether every flag in mask is set.
func (s State) Has(mask State) bool {
	return s&mask == mask
}

// HasAny reports whether at least one flag in mask is set.
func (s State) HasAny(mask State) bool {
	return s&mask != 0
}

// Names returns the set flags as their protocol-style names.
func (s State) Names() []string {
	var names []string
	for _, e := range stateNames {
		if s&e.flag != 0 {
			names = append(names, e.name)
		}
	}
	return names
}

func (s State) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), "|")
}

// StateFromName maps a state name back to its flag. Hyphens are
// accepted in place of underscores, and "maximized" means both axes.
func StateFromName(name string) (State, bool) {
	name = strings.ReplaceAll(name, "-", "_")
	if name == "maximized" {
		return StateMaximized, true
	}
	for _, e := range stateNames {
		if e.name == name {
			return e.flag, true
		}
	}
	return 0, false
}

// Mode selects how a state mask is combined with a window's current state.
type Mode int

const (
	ModeUnset Mode = iota
	ModeSet
	ModeToggle
)

func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeSet:
		return "set"
	case ModeToggle:
		return "toggle"
	}
	return "unknown"
}

// Combine applies mask to s according to the mode.
func (m Mode) Combine(s, mask State) State {
	switch m {
	case ModeSet:
		return s | mask
	case ModeToggle:
		return s ^ mask
	default:
		return s &^ mask
	}
}

// TypeClass categorizes a window by its declared role.
type TypeClass string

const (
	TypeNormal  TypeClass = "normal"
	TypeDialog  TypeClass = "dialog"
	TypeUtility TypeClass = "utility"
	TypeSplash  TypeClass = "splash"
	TypeDesktop TypeClass = "desktop"
	TypeDock    TypeClass = "dock"
	TypeToolbar TypeClass = "toolbar"
	TypeMenu    TypeClass = "menu"
	TypeUnknown TypeClass = "unknown"
)
