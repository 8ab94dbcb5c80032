package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/ipc"
	"github.com/hemebond/PyWO/internal/menu"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: pywo daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: pywo daemon")
			os.Exit(2)
		}
		runDaemon()
	case "do":
		os.Exit(runDo(os.Args[2:]))
	case "menu":
		os.Exit(runMenu(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "viewport":
		os.Exit(runViewport(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pywo <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the pywo daemon (foreground)")
	fmt.Fprintln(w, "  do <action>         Run a window action")
	fmt.Fprintln(w, "  menu                Pick an action from a launcher menu (rofi/dmenu)")
	fmt.Fprintln(w, "  windows             List managed windows")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  viewport            Show the usable work area")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  put <col>,<row> | put <direction> | span <direction>")
	fmt.Fprintln(w, "  move <direction> [amount] | resize <direction> [amount]")
	fmt.Fprintln(w, "  expand <direction> | shrink <direction>")
	fmt.Fprintln(w, "  cycle next|prev | toggle <state> | center")
	fmt.Fprintln(w, "  Append 'on NAME' to target windows matching a configured filter preset.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'pywo <command> --help' for command-specific options.")
}

// jsonOutput reports whether results should be machine-readable: forced
// by the flag, or implied by stdout not being a terminal.
func jsonOutput(forced bool) bool {
	return forced || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDo(args []string) int {
	fs := flag.NewFlagSet("do", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo do [--socket PATH] <action...>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Submit an action to the daemon and print its request id.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  pywo do put right")
		fmt.Fprintln(os.Stderr, "  pywo do put 1,0")
		fmt.Fprintln(os.Stderr, "  pywo do toggle fullscreen on browsers   (browsers: a filter preset)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "do requires an action")
		fs.Usage()
		return 2
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	id, err := client.DoAction(strings.Join(fs.Args(), " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(id)
	return 0
}

func runMenu(args []string) int {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo menu [--socket PATH] [--picker NAME] [--prompt TEXT]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the configured bindings and the action catalog in a launcher")
		fmt.Fprintln(os.Stderr, "menu and submit the chosen action to the daemon. Bind this command")
		fmt.Fprintln(os.Stderr, "itself to a key for a keyboard-only workflow.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	picker := fs.String("picker", "auto", "Picker program: rofi, dmenu or auto")
	prompt := fs.String("prompt", "pywo", "Prompt text")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "menu takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	p, err := menu.NewPicker(*picker)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	entry, err := p.Pick(*prompt, menu.Build(cfg))
	if errors.Is(err, menu.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	id, err := client.DoAction(entry.Action)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(id)
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo windows [--socket PATH] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List managed windows, topmost first. The active window is marked")
		fmt.Fprintln(os.Stderr, "with an asterisk.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := client.Windows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if jsonOutput(*jsonOut) {
		return printJSON(data)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " ID\tDESKTOP\tGEOMETRY\tSTATES\tCLASS\tTITLE")
	for _, win := range data.Windows {
		marker := " "
		if win.Active {
			marker = "*"
		}
		states := strings.Join(win.States, ",")
		if states == "" {
			states = "-"
		}
		fmt.Fprintf(w, "%s%d\t%d\t%dx%d+%d+%d\t%s\t%s\t%s\n",
			marker, win.ID, win.Desktop,
			win.Width, win.Height, win.X, win.Y,
			states, win.Class, win.Title)
	}
	w.Flush()
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo status [--socket PATH] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := client.Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if jsonOutput(*jsonOut) {
		return printJSON(status)
	}

	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("desktop:        %d\n", status.Desktop)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("grid:           %dx%d gap %dpx\n", status.Grid.Columns, status.Grid.Rows, status.Grid.Gap)
	fmt.Printf("dispatched:     %d\n", status.Dispatched)
	fmt.Printf("failed:         %d\n", status.Failed)
	fmt.Printf("dropped:        %d\n", status.Dropped)
	fmt.Printf("queue_length:   %d\n", status.QueueLength)
	return 0
}

func runViewport(args []string) int {
	fs := flag.NewFlagSet("viewport", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo viewport [--socket PATH] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the usable work area of the monitor holding the active window,")
		fmt.Fprintln(os.Stderr, "panels and docks subtracted, as WIDTHxHEIGHT+X+Y.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "viewport takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	area, err := client.Viewport()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if jsonOutput(*jsonOut) {
		return printJSON(area)
	}
	fmt.Printf("%dx%d+%d+%d\n", area.Width, area.Height, area.X, area.Y)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pywo reload [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to reload its configuration file. Validation errors")
		fmt.Fprintln(os.Stderr, "are reported here and the previous configuration stays active.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: runtime directory)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := ipc.NewClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  pywo config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  pywo config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/pywo/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/pywo/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		switch {
		case *printDefaults:
			cfg = config.DefaultConfig()
		case *path == "":
			cfg, err = config.Load()
		default:
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
