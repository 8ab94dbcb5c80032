// Package menu shows a searchable picker of window actions through
// rofi or dmenu. The picker is an external process, so the daemon
// never links a toolkit; whatever the user chooses goes to the daemon
// over IPC like any other action string.
package menu

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the user closes the picker without
// choosing an entry.
var ErrCancelled = errors.New("menu cancelled")

// Entry is one selectable row. Header rows carry no action and are
// rendered non-selectable where the picker supports that.
type Entry struct {
	Label  string // display text
	Action string // action string submitted on selection
	Keys   string // bound key chord, shown as a hint
	Header bool
}

type pickerKind int

const (
	kindRofi pickerKind = iota
	kindDmenu
)

// Picker runs an external launcher in dmenu mode and maps the
// selection back to an entry.
type Picker struct {
	command string
	kind    pickerKind
}

// NewPicker resolves a picker by name. Empty or "auto" takes the
// first launcher found in PATH, rofi before dmenu.
func NewPicker(name string) (*Picker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		if _, err := exec.LookPath("rofi"); err == nil {
			return &Picker{command: "rofi", kind: kindRofi}, nil
		}
		if _, err := exec.LookPath("dmenu"); err == nil {
			return &Picker{command: "dmenu", kind: kindDmenu}, nil
		}
		return nil, fmt.Errorf("no picker found in PATH (looked for rofi, dmenu)")
	case "rofi":
		if _, err := exec.LookPath("rofi"); err != nil {
			return nil, fmt.Errorf("picker %q not found in PATH", "rofi")
		}
		return &Picker{command: "rofi", kind: kindRofi}, nil
	case "dmenu":
		if _, err := exec.LookPath("dmenu"); err != nil {
			return nil, fmt.Errorf("picker %q not found in PATH", "dmenu")
		}
		return &Picker{command: "dmenu", kind: kindDmenu}, nil
	}
	return nil, fmt.Errorf("unknown picker %q (expected rofi, dmenu or auto)", name)
}

// Pick shows the entries and returns the chosen one, or ErrCancelled.
func (p *Picker) Pick(prompt string, entries []Entry) (Entry, error) {
	rows := p.rows(entries)
	if len(rows) == 0 {
		return Entry{}, fmt.Errorf("menu: nothing to show")
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = p.formatRow(row)
	}

	cmd := exec.Command(p.command, p.args(prompt)...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Entry{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Entry{}, fmt.Errorf("%s failed: %s", p.command, msg)
		}
		return Entry{}, fmt.Errorf("%s failed: %w", p.command, err)
	}
	if selection == "" {
		return Entry{}, ErrCancelled
	}

	return p.parseSelection(selection, rows)
}

// rows prepares the entries for this picker. dmenu cannot render
// non-selectable rows, so headers are dropped there, and duplicate
// labels are numbered because dmenu reports the selection by text.
func (p *Picker) rows(entries []Entry) []Entry {
	rows := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Header && p.kind == kindDmenu {
			continue
		}
		rows = append(rows, e)
	}

	if p.kind == kindDmenu {
		seen := make(map[string]int)
		for i := range rows {
			label := displayLabel(rows[i])
			if n := seen[label]; n > 0 {
				rows[i].Label = fmt.Sprintf("%s (%d)", rows[i].Label, n+1)
			}
			seen[label]++
		}
	}
	return rows
}

func (p *Picker) args(prompt string) []string {
	switch p.kind {
	case kindRofi:
		args := []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Selection comes back as a row index; labels stay free to
		// carry markup and arbitrary text.
		args = append(args, "-format", "i")
		// The rows are a fixed action set; typed entries mean nothing.
		args = append(args, "-no-custom")
		args = append(args, "-markup-rows")
		return args
	default:
		args := []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		return args
	}
}

func (p *Picker) formatRow(e Entry) string {
	display := displayLabel(e)

	if p.kind != kindRofi {
		return display
	}

	display = html.EscapeString(display)
	if e.Header {
		display = "<b>" + display + "</b>"
	} else if e.Keys != "" {
		display = html.EscapeString(sanitizeLabel(e.Label)) +
			"  <span size='small' alpha='60%'>" + html.EscapeString(e.Keys) + "</span>"
	}

	// Row properties ride behind a single NUL, key/value pairs
	// separated by \x1f.
	var attrs []string
	if e.Header {
		attrs = append(attrs, "nonselectable", "true")
	}
	if e.Keys != "" {
		attrs = append(attrs, "meta", sanitizeField(e.Keys))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (p *Picker) parseSelection(selection string, rows []Entry) (Entry, error) {
	if p.kind == kindRofi {
		idx, err := strconv.Atoi(selection)
		if err == nil {
			if idx < 0 || idx >= len(rows) {
				return Entry{}, fmt.Errorf("menu: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, row := range rows {
		if displayLabel(row) == selection {
			return row, nil
		}
	}
	return Entry{}, fmt.Errorf("menu: unknown selection %q", selection)
}

// displayLabel is the plain-text form of a row as dmenu sees it.
func displayLabel(e Entry) string {
	label := sanitizeLabel(e.Label)
	if e.Keys != "" && !e.Header {
		return label + "  [" + e.Keys + "]"
	}
	return label
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitizeLabel(value)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	}
	return false
}
