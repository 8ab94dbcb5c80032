package filter

import (
	"fmt"

	"github.com/hemebond/PyWO/internal/platform"
)

var knownTypes = map[string]platform.TypeClass{
	"normal":  platform.TypeNormal,
	"dialog":  platform.TypeDialog,
	"utility": platform.TypeUtility,
	"splash":  platform.TypeSplash,
	"desktop": platform.TypeDesktop,
	"dock":    platform.TypeDock,
	"toolbar": platform.TypeToolbar,
	"menu":    platform.TypeMenu,
}

// Preset is the structural form of a filter as written in the config
// file. All listed clauses must hold for a window to match.
type Preset struct {
	Class     []string
	Type      []string
	Desktop   *int
	States    []string
	NotStates []string
}

// Compile turns the preset into an executable expression. Presets
// with no clauses are rejected.
func (p Preset) Compile() (Expression, error) {
	var clauses []Expression

	if len(p.Class) > 0 {
		clauses = append(clauses, ClassIs(p.Class...))
	}

	if len(p.Type) > 0 {
		types := make([]platform.TypeClass, 0, len(p.Type))
		for _, name := range p.Type {
			t, ok := knownTypes[name]
			if !ok {
				return nil, fmt.Errorf("unknown window type %q", name)
			}
			types = append(types, t)
		}
		clauses = append(clauses, TypeIs(types...))
	}

	if p.Desktop != nil {
		clauses = append(clauses, OnDesktop(*p.Desktop))
	}

	if mask, err := stateMask(p.States); err != nil {
		return nil, err
	} else if mask != 0 {
		clauses = append(clauses, HasState(mask))
	}

	if mask, err := stateMask(p.NotStates); err != nil {
		return nil, err
	} else if mask != 0 {
		clauses = append(clauses, LacksState(mask))
	}

	if len(clauses) == 0 {
		return nil, fmt.Errorf("filter has no clauses")
	}
	return And(clauses...), nil
}

func stateMask(names []string) (platform.State, error) {
	var mask platform.State
	for _, name := range names {
		flag, ok := platform.StateFromName(name)
		if !ok {
			return 0, fmt.Errorf("unknown window state %q", name)
		}
		mask |= flag
	}
	return mask, nil
}
