package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/ipc"
	"github.com/1broseidon/meterdeck/internal/meter"
)

func printMeterUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  meterdeck meter list [--json]")
	fmt.Fprintln(w, "  meterdeck meter add [--strike N] [--right CALL|PUT] [--expiry YYYY-MM-DD] [--inverted]")
	fmt.Fprintln(w, "                      [--x N --y N] [--width N --height N] [--id ID]")
	fmt.Fprintln(w, "  meterdeck meter close <id>")
	fmt.Fprintln(w, "  meterdeck meter reset <id>")
	fmt.Fprintln(w, "  meterdeck meter invert <id>")
	fmt.Fprintln(w, "  meterdeck meter strike <id> <strike>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "A meter id may be shortened to any unique prefix.")
}

func runMeter(args []string) int {
	if len(args) == 0 {
		printMeterUsage(os.Stderr)
		return 2
	}

	client := ipc.NewClient()
	switch args[0] {
	case "list":
		return runMeterList(client, args[1:])
	case "add":
		return runMeterAdd(client, args[1:])
	case "close":
		return runMeterByID("close", args[1:], client.CloseMeter)
	case "reset":
		return runMeterByID("reset", args[1:], client.ResetMeter)
	case "invert":
		return runMeterByID("invert", args[1:], client.InvertMeter)
	case "strike":
		return runMeterStrike(client, args[1:])
	case "help", "-h", "--help":
		printMeterUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown meter command: %s\n\n", args[0])
		printMeterUsage(os.Stderr)
		return 2
	}
}

func runMeterList(client *ipc.Client, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output JSON")
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	meters, err := client.ListMeters()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(meters); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printMeters(os.Stdout, meters)
	return 0
}

func printMeters(w io.Writer, meters []deck.MeterInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTRIKE\tRIGHT\tEXPIRY\tBUY\tSELL\tGEOMETRY\tATTACHED")
	for _, m := range meters {
		expiry := m.Expiry
		if expiry == "" {
			expiry = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%dx%d+%d+%d\t%s\n",
			shortID(m.ID), meter.FormatStrike(m.Strike), m.Right, expiry,
			m.Tally.Buy, m.Tally.Sell,
			m.Width, m.Height, m.X, m.Y,
			formatAttached(m.Attached))
	}
	tw.Flush()
}

func formatAttached(attached map[string]string) string {
	if len(attached) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(attached))
	for id, side := range attached {
		parts = append(parts, side+":"+shortID(id))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runMeterAdd(client *ipc.Client, args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var p ipc.AddMeterPayload
	fs.StringVar(&p.ID, "id", "", "Meter id (default: random UUID)")
	fs.Float64Var(&p.Strike, "strike", 0, "Strike price (default: 5900)")
	fs.StringVar(&p.Right, "right", "", "CALL or PUT (default: CALL)")
	fs.StringVar(&p.Expiry, "expiry", "", "Expiry as YYYY-MM-DD (default: any)")
	fs.BoolVar(&p.Inverted, "inverted", false, "Draw buy volume on top")
	fs.IntVar(&p.X, "x", 0, "Left edge in screen pixels")
	fs.IntVar(&p.Y, "y", 0, "Top edge in screen pixels")
	fs.IntVar(&p.Width, "width", 0, "Width in pixels (default: meter_defaults.width)")
	fs.IntVar(&p.Height, "height", 0, "Height in pixels (default: meter_defaults.height)")
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	info, err := client.AddMeter(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(info.ID)
	return 0
}

func runMeterByID(name string, args []string, fn func(string) error) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintf(os.Stderr, "Usage: meterdeck meter %s <id>\n", name)
		return 2
	}
	if err := fn(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMeterStrike(client *ipc.Client, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: meterdeck meter strike <id> <strike>")
		return 2
	}
	strike, err := strconv.ParseFloat(args[1], 64)
	if err != nil || strike <= 0 {
		fmt.Fprintf(os.Stderr, "invalid strike %q\n", args[1])
		return 2
	}
	if err := client.SetStrike(args[0], strike); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
