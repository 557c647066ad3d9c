package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/ipc"
	"github.com/1broseidon/meterdeck/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "meter":
		os.Exit(runMeter(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "feed":
		os.Exit(runFeed(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: meterdeck <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the meterdeck daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload configuration in the running daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  snap on|off|toggle  Enable, disable or toggle edge snapping")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  meter list          List open meters")
	fmt.Fprintln(w, "  meter add           Open a new meter")
	fmt.Fprintln(w, "  meter close         Close a meter")
	fmt.Fprintln(w, "  meter reset         Zero a meter's tally")
	fmt.Fprintln(w, "  meter invert        Flip a meter's buy/sell orientation")
	fmt.Fprintln(w, "  meter strike        Retarget a meter to a new strike")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  feed publish        Publish a trade to the Redis feed channel")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the live meter dashboard")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'meterdeck <command> --help' for command-specific options.")
}

// parseNoArgs parses a flag set for a command that takes no positional
// arguments. It returns -1 when the caller should continue.
func parseNoArgs(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2
	}
	return -1
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meterdeck status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status, term.IsTerminal(int(os.Stdout.Fd())))
	return 0
}

var (
	onStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// printStatus writes the daemon status. On a terminal the snap state is
// shown as a coloured on/off.
func printStatus(w io.Writer, status *ipc.StatusData, tty bool) {
	snap := fmt.Sprintf("%v", status.SnapEnabled)
	if tty {
		if status.SnapEnabled {
			snap = onStyle.Render("on")
		} else {
			snap = offStyle.Render("off")
		}
	}
	fmt.Fprintf(w, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "snap_enabled:   %s\n", snap)
	fmt.Fprintf(w, "snap_distance:  %d\n", status.SnapDistance)
	fmt.Fprintf(w, "meter_count:    %d\n", status.MeterCount)
	fmt.Fprintf(w, "uptime_seconds: %d\n", status.UptimeSeconds)
}

func runSnap(args []string) int {
	usage := func(w io.Writer) {
		fmt.Fprintln(w, "Usage: meterdeck snap on|off|toggle")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Disabling snapping forgets all attachments. Enabling it re-attaches")
		fmt.Fprintln(w, "meters that are already flush.")
	}
	if len(args) != 1 {
		usage(os.Stderr)
		return 2
	}

	client := ipc.NewClient()
	var (
		enabled bool
		err     error
	)
	switch args[0] {
	case "on":
		enabled, err = client.SetSnap(true)
	case "off":
		enabled, err = client.SetSnap(false)
	case "toggle":
		enabled, err = client.ToggleSnap()
	case "help", "-h", "--help":
		usage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown snap mode: %s\n\n", args[0])
		usage(os.Stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if enabled {
		fmt.Println("snap: on")
	} else {
		fmt.Println("snap: off")
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meterdeck reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Reload the config file. Only snap_enabled and snap_distance take")
		fmt.Fprintln(os.Stderr, "effect without a restart.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config: reloaded")
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  meterdeck config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  meterdeck config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/meterdeck/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/meterdeck/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			cfg, err = loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
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

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meterdeck tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live dashboard of the running daemon's meters.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Select meter")
		fmt.Fprintln(os.Stderr, "  s         Toggle snapping")
		fmt.Fprintln(os.Stderr, "  a         Add a meter")
		fmt.Fprintln(os.Stderr, "  e         Change the selected meter's strike")
		fmt.Fprintln(os.Stderr, "  r         Reset the selected meter's tally")
		fmt.Fprintln(os.Stderr, "  i         Invert the selected meter")
		fmt.Fprintln(os.Stderr, "  x         Close the selected meter")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
