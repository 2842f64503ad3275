// Command xena-ctl drives traffic-generator chassis from a lab description.
//
// Usage:
//
//	xena-ctl <command> [flags]
//
// Commands:
//
//	inventory   Read and print the chassis, module and port tree
//	reserve     Reserve and reset the configured ports
//	release     Release the configured ports held by the owner
//	start       Start traffic (-wait runs it to completion)
//	stop        Stop traffic
//	clear       Clear port statistics
//	stats       Print port statistics (-db records a snapshot)
//	run         Reserve, clear, run traffic to completion, print stats, release
//
// Common flags:
//
//	-config string        Lab description file (default "xena.yaml")
//	-env string           Env file with XENA_OWNER / XENA_PASSWORD (default ".env")
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  File path for protocol event logging (CBOR format)
//
// Examples:
//
//	# Reserve ports, then run traffic for as long as the streams are configured
//	xena-ctl reserve -config lab.yaml
//	xena-ctl start -wait -config lab.yaml
//
//	# One-shot run recording statistics
//	xena-ctl run -config lab.yaml -db stats.db -label nightly
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xena-tools/xenamanager-go/cmd/xena-ctl/commands"
	"github.com/xena-tools/xenamanager-go/pkg/config"
	xenalog "github.com/xena-tools/xenamanager-go/pkg/log"
)

const usage = `xena-ctl - Traffic Generator Chassis Control

Usage:
  xena-ctl <command> [flags]

Commands:
  inventory   Read and print the chassis, module and port tree
  reserve     Reserve and reset the configured ports
  release     Release the configured ports held by the owner
  start       Start traffic (-wait runs it to completion)
  stop        Stop traffic
  clear       Clear port statistics
  stats       Print port statistics (-db records a snapshot)
  run         Reserve, clear, run traffic to completion, print stats, release

Use "xena-ctl <command> -help" for more information about a command.
`

// commonFlags are accepted by every command.
type commonFlags struct {
	configFile  string
	envFile     string
	logLevel    string
	protocolLog string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "xena.yaml", "Lab description file")
	fs.StringVar(&c.envFile, "env", ".env", "Env file with XENA_OWNER / XENA_PASSWORD")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides the file)")
	fs.StringVar(&c.protocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "inventory", "reserve", "release", "stop", "clear":
		runSimple(cmd, args)
	case "start":
		runStart(args)
	case "stats":
		runStats(args)
	case "run":
		runRun(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "xena-ctl %s - %s\n\nUsage:\n  xena-ctl %s [flags]\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	common := &commonFlags{}
	common.register(fs)
	return fs, common
}

func runSimple(name string, args []string) {
	synopsis := map[string]string{
		"inventory": "Read and print the chassis, module and port tree",
		"reserve":   "Reserve and reset the configured ports",
		"release":   "Release the configured ports held by the owner",
		"stop":      "Stop traffic",
		"clear":     "Clear port statistics",
	}[name]
	fs, common := newFlagSet(name, synopsis)
	force := false
	if name == "reserve" {
		fs.BoolVar(&force, "force", false, "Take over ports reserved by other owners")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execute(common, func(ctx context.Context, r *commands.Runner, cfg *config.Config) error {
		switch name {
		case "inventory":
			return r.Inventory(ctx)
		case "reserve":
			cfg.Force = cfg.Force || force
			return r.Reserve(ctx)
		case "release":
			return r.Release(ctx)
		case "stop":
			return r.Stop(ctx)
		default:
			return r.Clear(ctx)
		}
	})
}

func runStart(args []string) {
	fs, common := newFlagSet("start", "Start traffic")
	wait := fs.Bool("wait", false, "Wait until traffic has stopped on every port")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execute(common, func(ctx context.Context, r *commands.Runner, _ *config.Config) error {
		return r.Start(ctx, *wait)
	})
}

func runStats(args []string) {
	fs, common := newFlagSet("stats", "Print port statistics")
	db := fs.String("db", "", "Statistics database (overrides the file)")
	label := fs.String("label", "", "Label of the recorded run")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execute(common, func(ctx context.Context, r *commands.Runner, cfg *config.Config) error {
		return r.Stats(ctx, pick(*db, cfg.StatsDB), *label)
	})
}

func runRun(args []string) {
	fs, common := newFlagSet("run", "Reserve, run traffic to completion, print stats, release")
	db := fs.String("db", "", "Statistics database (overrides the file)")
	label := fs.String("label", "", "Label of the recorded run")
	force := fs.Bool("force", false, "Take over ports reserved by other owners")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execute(common, func(ctx context.Context, r *commands.Runner, cfg *config.Config) error {
		cfg.Force = cfg.Force || *force
		return r.Run(ctx, pick(*db, cfg.StatsDB), *label)
	})
}

// execute loads the configuration, connects and runs fn.
func execute(common *commonFlags, fn func(context.Context, *commands.Runner, *config.Config) error) {
	cfg, err := config.Load(common.configFile, common.envFile)
	if err != nil {
		fatal(err)
	}
	if common.logLevel != "" {
		cfg.LogLevel = common.logLevel
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := commands.Options{Config: cfg, Out: os.Stdout, Logger: logger}
	var fileLogger xenalog.Logger
	if path := pick(common.protocolLog, cfg.ProtocolLog); path != "" {
		fl, err := xenalog.NewFileLogger(path, xenalog.WithMaxSize(cfg.ProtocolLogMaxSize))
		if err != nil {
			fatal(fmt.Errorf("failed to create protocol logger: %w", err))
		}
		defer func() {
			fl.Close()
			if n := fl.Dropped(); n > 0 {
				logger.Warn("Protocol events dropped", "count", n)
			}
		}()
		fileLogger = fl
		logger.Info("Protocol logging", "path", path, "maxSize", cfg.ProtocolLogMaxSize)
	}
	// At debug level the protocol trace is echoed to the console as well.
	var console xenalog.Logger
	if level <= slog.LevelDebug {
		console = xenalog.NewSlogAdapter(logger)
	}
	opts.ProtocolLogger = xenalog.Tee(fileLogger, console)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := commands.NewRunner(opts)
	err = r.Connect(ctx)
	if err == nil {
		err = fn(ctx, r, cfg)
	}
	if closeErr := r.Close(); closeErr != nil {
		logger.Warn("Close failed", "error", closeErr)
	}
	if err != nil {
		fatal(err)
	}
}

func pick(flagValue, fileValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return fileValue
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
