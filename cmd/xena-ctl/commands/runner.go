// Package commands implements the xena-ctl CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/config"
	xenalog "github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/service"
	"github.com/xena-tools/xenamanager-go/pkg/stats"
	"github.com/xena-tools/xenamanager-go/pkg/statstore"
	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// ErrNoPorts indicates a command that needs ports ran without any configured.
var ErrNoPorts = errors.New("no ports configured")

// cleanupTimeout bounds the teardown of an interrupted run.
const cleanupTimeout = 10 * time.Second

// Options configures a Runner.
type Options struct {
	// Config is the loaded lab description.
	Config *config.Config

	// Out receives the command output.
	Out io.Writer

	// ProtocolLogger receives protocol events. Nil disables it.
	ProtocolLogger xenalog.Logger

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Runner executes commands against the configured chassis.
type Runner struct {
	opts    Options
	session *service.Session
}

// NewRunner creates a runner. Connect must be called before any command.
func NewRunner(opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{opts: opts}
}

// Session returns the underlying session, nil before Connect.
func (r *Runner) Session() *service.Session {
	return r.session
}

// Connect opens a session and logs on to every configured chassis.
func (r *Runner) Connect(ctx context.Context) error {
	cfg := r.opts.Config
	sc := cfg.SessionConfig()
	sc.Logger = r.opts.Logger
	sc.ProtocolLogger = r.opts.ProtocolLogger

	r.session = service.NewSession(sc)
	for _, ch := range cfg.Chassis {
		if _, err := r.session.AddChassis(ctx, ch.Address, ch.Port, ch.Password); err != nil {
			return errors.Join(err, r.session.Close())
		}
	}
	return nil
}

// Close closes the chassis connections and leaves reservations in place.
func (r *Runner) Close() error {
	if r.session == nil {
		return nil
	}
	return r.session.Close()
}

// Inventory reads and prints the chassis, module and port tree.
func (r *Runner) Inventory(ctx context.Context) error {
	if err := r.session.Inventory(ctx); err != nil {
		return err
	}

	w := r.opts.Out
	chassis := r.session.Chassis()
	for _, name := range sortedNames(chassis) {
		c := chassis[name]
		info := c.Info()
		fmt.Fprintf(w, "Chassis %s  name=%s model=%s serial=%s\n",
			name, wire.Unquote(info["name"]), wire.Unquote(info["model"]), info["serialno"])

		modules := c.Modules()
		for _, mi := range sortedIndices(modules) {
			m := modules[mi]
			mInfo := m.Info()
			ports := m.Ports()
			fmt.Fprintf(w, "  Module %d  model=%s cfptype=%s ports=%d\n",
				mi, wire.Unquote(mInfo["model"]), mInfo["cfptype"], len(ports))

			for _, pi := range sortedIndices(ports) {
				p := ports[pi]
				pInfo := p.Info()
				fmt.Fprintf(w, "    Port %s  speed=%s sync=%s\n", p.Name(), pInfo["speed"], pInfo["receivesync"])
			}
		}
	}
	return nil
}

// Reserve reserves and resets the configured ports.
func (r *Runner) Reserve(ctx context.Context) error {
	if len(r.opts.Config.Ports) == 0 {
		return ErrNoPorts
	}
	ports, err := r.session.ReservePorts(ctx, r.opts.Config.Ports, r.opts.Config.Force)
	if err != nil {
		return err
	}
	r.printReservations(ports)
	return nil
}

// Release releases the configured ports held by this owner.
func (r *Runner) Release(ctx context.Context) error {
	if _, err := r.attach(ctx); err != nil {
		return err
	}
	if err := r.session.ReleasePorts(ctx); err != nil {
		return err
	}
	r.printReservations(r.session.Ports())
	return nil
}

// Start starts traffic on the configured ports. With wait it returns once
// every port has stopped transmitting.
func (r *Runner) Start(ctx context.Context, wait bool) error {
	if _, err := r.attach(ctx); err != nil {
		return err
	}
	start := time.Now()
	if err := r.session.StartTraffic(ctx, wait); err != nil {
		return err
	}
	if wait {
		fmt.Fprintf(r.opts.Out, "Traffic completed after %s\n", time.Since(start).Round(time.Millisecond))
	} else {
		fmt.Fprintln(r.opts.Out, "Traffic started")
	}
	return nil
}

// Stop stops traffic on the configured ports.
func (r *Runner) Stop(ctx context.Context) error {
	if _, err := r.attach(ctx); err != nil {
		return err
	}
	if err := r.session.StopTraffic(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.opts.Out, "Traffic stopped")
	return nil
}

// Clear clears the counters of the configured ports.
func (r *Runner) Clear(ctx context.Context) error {
	if _, err := r.attach(ctx); err != nil {
		return err
	}
	if err := r.session.ClearStats(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.opts.Out, "Statistics cleared")
	return nil
}

// Stats reads and prints the counters of the configured ports. When dbPath
// is set the snapshot is recorded as a new run labeled label.
func (r *Runner) Stats(ctx context.Context, dbPath, label string) error {
	if _, err := r.attach(ctx); err != nil {
		return err
	}
	return r.readStats(ctx, dbPath, label)
}

// Run reserves the configured ports, clears their counters, runs traffic
// to completion, prints the counters and releases the ports.
func (r *Runner) Run(ctx context.Context, dbPath, label string) (err error) {
	if err := r.Reserve(ctx); err != nil {
		return err
	}
	defer func() {
		// The run context may be cancelled already. Teardown still runs.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err != nil {
			if stopErr := r.session.StopTraffic(cleanupCtx); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
		}
		if relErr := r.session.ReleasePorts(cleanupCtx); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()

	if err := r.session.ClearStats(ctx); err != nil {
		return err
	}
	start := time.Now()
	if err := r.session.StartTraffic(ctx, true); err != nil {
		return err
	}
	fmt.Fprintf(r.opts.Out, "Traffic completed after %s\n", time.Since(start).Round(time.Millisecond))
	return r.readStats(ctx, dbPath, label)
}

func (r *Runner) attach(ctx context.Context) (map[string]*service.Port, error) {
	if len(r.opts.Config.Ports) == 0 {
		return nil, ErrNoPorts
	}
	return r.session.AttachPorts(ctx, r.opts.Config.Ports)
}

func (r *Runner) readStats(ctx context.Context, dbPath, label string) error {
	view := stats.NewPortsView(r.session)
	if _, err := view.Read(ctx); err != nil {
		return err
	}
	flat := view.Flat()
	printStats(r.opts.Out, flat)

	if dbPath == "" {
		return nil
	}
	store, err := statstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.BeginRun(ctx, r.session.Owner(), label)
	if err != nil {
		return err
	}
	if err := store.Record(ctx, run.ID, time.Now(), flat); err != nil {
		return err
	}
	fmt.Fprintf(r.opts.Out, "Recorded run %s\n", run.ID)
	return nil
}

func (r *Runner) printReservations(ports map[string]*service.Port) {
	for _, name := range sortedNames(ports) {
		fmt.Fprintf(r.opts.Out, "%s %s\n", name, ports[name].ReservationState())
	}
}

// printStats writes one row per counter and one column per port.
func printStats(w io.Writer, flat stats.FlatStats) {
	ports := flat.Rows()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, p := range ports {
		fmt.Fprintf(tw, "%s\t", p)
	}
	fmt.Fprintln(tw)
	for _, col := range flat.Columns() {
		fmt.Fprintf(tw, "%s\t", col)
		for _, p := range ports {
			fmt.Fprintf(tw, "%d\t", flat[p][col])
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedIndices[V any](m map[int]V) []int {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
