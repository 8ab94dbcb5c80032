// Package config defines the YAML configuration: the default grid,
// named grids and filter presets, key bindings, and the daemon's
// logging, IPC and HTTP settings. Files decode strictly, so unknown
// keys are load errors rather than silent typos.
package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/filter"
	"github.com/hemebond/PyWO/internal/geometry"
)

// ValidationError reports one bad config value with its YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

type Config struct {
	Grid     GridConfig              `yaml:"grid"`
	Grids    map[string]GridConfig   `yaml:"grids,omitempty"`
	Filters  map[string]FilterConfig `yaml:"filters,omitempty"`
	Bindings []Binding               `yaml:"bindings"`
	Logging  LoggingConfig           `yaml:"logging,omitempty"`
	API      APIConfig               `yaml:"api,omitempty"`
	IPC      IPCConfig               `yaml:"ipc,omitempty"`
}

// GridConfig is one grid's dimensions as written in YAML.
type GridConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
	Gap     int `yaml:"gap"`
}

// Grid converts to the geometry form.
func (g GridConfig) Grid() geometry.Grid {
	return geometry.Grid{Columns: g.Columns, Rows: g.Rows, Gap: g.Gap}
}

// FilterConfig is the structural form of a named filter preset. All
// listed clauses must hold for a window to match.
type FilterConfig struct {
	Class     []string `yaml:"class,omitempty"`
	Type      []string `yaml:"type,omitempty"`
	Desktop   *int     `yaml:"desktop,omitempty"`
	States    []string `yaml:"states,omitempty"`
	NotStates []string `yaml:"not_states,omitempty"`
}

func (f FilterConfig) preset() filter.Preset {
	return filter.Preset{
		Class:     f.Class,
		Type:      f.Type,
		Desktop:   f.Desktop,
		States:    f.States,
		NotStates: f.NotStates,
	}
}

// Binding ties a key chord to an action string, optionally scoped to a
// named filter and a named grid.
type Binding struct {
	Keys   string `yaml:"keys"`
	Action string `yaml:"action"`
	Filter string `yaml:"filter,omitempty"`
	Grid   string `yaml:"grid,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// APIConfig controls the HTTP API. An empty listen address disables it.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// IPCConfig overrides the unix socket path. Empty uses the runtime
// directory default.
type IPCConfig struct {
	Socket string `yaml:"socket,omitempty"`
}

// DefaultConfig returns the built-in configuration used when no file
// exists. The numpad bindings mirror its spatial layout onto the grid:
// KP_7/8/9 are the top row, KP_1/2/3 the bottom.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{Columns: 3, Rows: 2, Gap: 0},
		Bindings: []Binding{
			{Keys: "Mod4-Mod1-j", Action: "cycle next"},
			{Keys: "Mod4-Mod1-k", Action: "cycle prev"},
			{Keys: "Mod4-Mod1-Left", Action: "put left"},
			{Keys: "Mod4-Mod1-Right", Action: "put right"},
			{Keys: "Mod4-Mod1-Up", Action: "put up"},
			{Keys: "Mod4-Mod1-Down", Action: "put down"},
			{Keys: "Mod4-Mod1-KP_7", Action: "put 0,0"},
			{Keys: "Mod4-Mod1-KP_8", Action: "put 1,0"},
			{Keys: "Mod4-Mod1-KP_9", Action: "put 2,0"},
			{Keys: "Mod4-Mod1-KP_1", Action: "put 0,1"},
			{Keys: "Mod4-Mod1-KP_2", Action: "put 1,1"},
			{Keys: "Mod4-Mod1-KP_3", Action: "put 2,1"},
			{Keys: "Mod4-Shift-Mod1-Left", Action: "span left"},
			{Keys: "Mod4-Shift-Mod1-Right", Action: "span right"},
			{Keys: "Mod4-Shift-Mod1-Up", Action: "span up"},
			{Keys: "Mod4-Shift-Mod1-Down", Action: "span down"},
			{Keys: "Mod4-Mod1-m", Action: "toggle maximized"},
			{Keys: "Mod4-Mod1-f", Action: "toggle fullscreen"},
			{Keys: "Mod4-Mod1-s", Action: "toggle sticky"},
			{Keys: "Mod4-Mod1-c", Action: "center"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// CompiledBinding is a binding resolved against the named grids and
// filters: a ready Request prototype that only needs stamping.
type CompiledBinding struct {
	Keys    string
	Action  string
	Request actions.Request
}

// CompiledBindings resolves every binding or reports the first bad one.
func (c *Config) CompiledBindings() ([]CompiledBinding, error) {
	compiled := make([]CompiledBinding, 0, len(c.Bindings))
	for i, b := range c.Bindings {
		path := fmt.Sprintf("bindings[%d]", i)
		if b.Keys == "" {
			return nil, &ValidationError{Path: path + ".keys", Err: fmt.Errorf("keys must not be empty")}
		}

		req, err := c.ParseAction(b.Action)
		if err != nil {
			return nil, &ValidationError{Path: path + ".action", Err: err}
		}

		if b.Filter != "" {
			if req.Target != nil {
				return nil, &ValidationError{Path: path + ".filter", Err: fmt.Errorf("filter set both inline and as a field")}
			}
			fc, ok := c.Filters[b.Filter]
			if !ok {
				return nil, &ValidationError{Path: path + ".filter", Err: fmt.Errorf("unknown filter %q", b.Filter)}
			}
			expr, err := fc.preset().Compile()
			if err != nil {
				return nil, &ValidationError{Path: "filters." + b.Filter, Err: err}
			}
			req.Target = expr
		}

		if b.Grid != "" {
			gc, ok := c.Grids[b.Grid]
			if !ok {
				return nil, &ValidationError{Path: path + ".grid", Err: fmt.Errorf("unknown grid %q", b.Grid)}
			}
			req.Grid = gc.Grid()
		}

		compiled = append(compiled, CompiledBinding{Keys: b.Keys, Action: b.Action, Request: req})
	}
	return compiled, nil
}

// ParseAction reads an action string, resolving an optional trailing
// "on NAME" clause against the named filter presets. "toggle fullscreen
// on browsers" scopes the toggle to windows matching the browsers
// preset instead of the whole workspace.
func (c *Config) ParseAction(s string) (actions.Request, error) {
	action, name := splitTargetClause(s)
	req, err := actions.Parse(action)
	if err != nil {
		return actions.Request{}, err
	}
	if name == "" {
		return req, nil
	}
	fc, ok := c.Filters[name]
	if !ok {
		return actions.Request{}, fmt.Errorf("unknown filter %q", name)
	}
	expr, err := fc.preset().Compile()
	if err != nil {
		return actions.Request{}, fmt.Errorf("filter %q: %w", name, err)
	}
	req.Target = expr
	return req, nil
}

// splitTargetClause cuts a trailing "on NAME" off an action string.
// No action verb or argument is spelled "on", so the clause is
// unambiguous.
func splitTargetClause(s string) (action, name string) {
	fields := strings.Fields(s)
	if len(fields) < 3 || fields[len(fields)-2] != "on" {
		return s, ""
	}
	return strings.Join(fields[:len(fields)-2], " "), fields[len(fields)-1]
}

var logLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

// Validate checks every value against its constraints. The first
// violation is returned with its YAML path.
func (c *Config) Validate() error {
	if err := c.Grid.Grid().Validate(); err != nil {
		return &ValidationError{Path: "grid", Err: err}
	}
	for name, gc := range c.Grids {
		if err := gc.Grid().Validate(); err != nil {
			return &ValidationError{Path: "grids." + name, Err: err}
		}
	}
	for name, fc := range c.Filters {
		if _, err := fc.preset().Compile(); err != nil {
			return &ValidationError{Path: "filters." + name, Err: err}
		}
	}
	if _, err := c.CompiledBindings(); err != nil {
		return err
	}
	if !logLevels[c.Logging.Level] {
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warning, error")}
	}
	if c.API.Listen != "" {
		if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
			return &ValidationError{Path: "api.listen", Err: fmt.Errorf("must be a host:port address: %v", err)}
		}
	}
	return nil
}
