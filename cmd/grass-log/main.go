// Command grass-log views and analyzes grass-node capture files.
//
// Capture files are written by grass-node when started with -protocol-log
// or with log.protocol_log set in its configuration.
//
// Usage:
//
//	grass-log <command> [flags] <file.glog>
//
// Commands:
//
//	view     View events in human-readable format
//	export   Export events as JSONL or CSV
//	filter   Copy matching events to a new capture file
//	stats    Show connection and message statistics
//
// Examples:
//
//	# View all events
//	grass-log view node.glog
//
//	# View only what the node sent
//	grass-log view -direction out node.glog
//
//	# Follow one connection attempt
//	grass-log view -conn-id 3f2a9c1e-... node.glog
//
//	# Export PONG traffic to JSONL
//	grass-log export -action pong node.glog
//
//	# Show statistics
//	grass-log stats node.glog
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grass-node/grass-go/cmd/grass-log/commands"
)

const usage = `grass-log - Broker Session Capture Analyzer

Usage:
  grass-log <command> [flags] <file.glog>

Commands:
  view     View events in human-readable format
  export   Export events as JSONL or CSV
  filter   Copy matching events to a new capture file
  stats    Show connection and message statistics

Use "grass-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// newFlagSet creates a flag set with the shared filter flags bound to opts.
func newFlagSet(name, summary string, opts *commands.FilterOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "grass-log %s - %s\n\nUsage:\n  grass-log %s [flags] <file.glog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	if opts != nil {
		fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
		fs.StringVar(&opts.DeviceID, "device-id", "", "Filter by device ID")
		fs.StringVar(&opts.Action, "action", "", "Filter by message action (auth, ping, pong, ...)")
		fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
		fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
		fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
		fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	}
	return fs
}

// parsePath parses args and returns the capture file argument.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("view", "View events in human-readable format", &opts)
	path := parsePath(fs, args)

	if err := commands.RunView(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("export", "Export events as JSONL or CSV", &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parsePath(fs, args)

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fail(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	if err := commands.RunExport(path, *format, opts, w); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("filter", "Copy matching events to a new capture file", &opts)
	output := fs.String("o", "", "Output file (required)")
	path := parsePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *output, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show connection and message statistics", nil)
	path := parsePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
