// Command xena-log views and analyzes chassis protocol log files.
//
// Log files are written by xena-ctl when it runs with the -protocol-log flag.
//
// Usage:
//
//	xena-log <command> [flags] <file.xlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only outgoing lines
//	xena-log view -direction out lab.xlog
//
//	# View the traffic of one chassis
//	xena-log view -chassis 10.0.0.1 lab.xlog
//
//	# View the rejected commands sent to one port
//	xena-log view -port 0/1 -failed lab.xlog
//
// A log rotated by xena-ctl is read together with its ".1" file.
//
//	# Export to CSV
//	xena-log export -format csv -o lab.csv lab.xlog
//
//	# Show statistics
//	xena-log stats lab.xlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xena-tools/xenamanager-go/cmd/xena-log/commands"
)

const usage = `xena-log - Chassis Protocol Log Analyzer

Usage:
  xena-log <command> [flags] <file.xlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "xena-log <command> -help" for more information about a command.
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

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `xena-log view - View log file in human-readable format

Usage:
  xena-log view [flags] <file.xlog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, control, state, error)")
	chassis := fs.String("chassis", "", "Filter by chassis name")
	mnemonic := fs.String("mnemonic", "", "Filter commands by parameter name (e.g. p_traffic)")
	port := fs.String("port", "", "Filter by port address (<module>/<port>)")
	failed := fs.Bool("failed", false, "Show only errors and rejected commands")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := commands.BuildFilter(commands.FilterOptions{
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
		Chassis:   *chassis,
		Mnemonic:  *mnemonic,
		Port:      *port,
		Failed:    *failed,
	})
	if err != nil {
		fatal(err)
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `xena-log export - Export log file to JSONL or CSV format

Usage:
  xena-log export [flags] <file.xlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `xena-log filter - Filter log file and write to new file

Usage:
  xena-log filter [flags] <file.xlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	chassis := fs.String("chassis", "", "Filter by chassis name")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, control, state, error)")
	mnemonic := fs.String("mnemonic", "", "Filter commands by parameter name (e.g. p_traffic)")
	port := fs.String("port", "", "Filter by port address (<module>/<port>)")
	failed := fs.Bool("failed", false, "Keep only errors and rejected commands")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		ConnID:    *connID,
		Chassis:   *chassis,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
		Mnemonic:  *mnemonic,
		Port:      *port,
		Failed:    *failed,
	}

	count, err := commands.RunFilter(path, opts)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `xena-log stats - Show statistics about the log file

Usage:
  xena-log stats <file.xlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
