package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pollux/enigma/internal/bombe"
	"github.com/pollux/enigma/internal/enigma"
	"github.com/pollux/enigma/internal/load"
	"github.com/pollux/enigma/internal/telemetry"
)

type bombeFlags struct {
	crib        string
	cipher      string
	rotors      string
	reflector   string
	allOrders   bool
	noPlugboard bool
	workers     int
	fraction    float64
	throttle    bool
	lowPriority bool
	top         int
	metricsAddr string
	trace       bool
	tracePretty bool
	quiet       bool
}

func newBombeCmd(a *app) *cobra.Command {
	f := &bombeFlags{}
	cmd := &cobra.Command{
		Use:   "bombe",
		Short: "Search for the settings that turn a crib into the ciphertext",
		Long: `Search every rotor order, crib offset and start position for settings
under which the crib enciphers to the ciphertext, deducing the plugboard as
it goes. The ciphertext is read from stdin when --cipher is not given.
Interrupting the search prints what has been found so far.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBombe(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.crib, "crib", "", "known plaintext")
	fl.StringVarP(&f.cipher, "cipher", "c", "", "ciphertext (default: stdin)")
	fl.StringVar(&f.rotors, "rotors", "I,II,III", "rotor order, or the pool to draw from with --all-orders")
	fl.StringVar(&f.reflector, "reflector", "B", "reflector type (B or C)")
	fl.BoolVar(&f.allOrders, "all-orders", false, "test every order of the rotor pool")
	fl.BoolVar(&f.noPlugboard, "no-plugboard", false, "skip plugboard deduction and keep partial matches")
	fl.IntVar(&f.workers, "workers", 0, "worker count (default: --fraction of the CPUs)")
	fl.Float64Var(&f.fraction, "fraction", load.DefaultFraction, "share of the CPUs to use for workers")
	fl.BoolVar(&f.throttle, "throttle", false, "pause workers while the process is busy")
	fl.BoolVar(&f.lowPriority, "low-priority", true, "lower the scheduling priority of worker threads")
	fl.IntVar(&f.top, "top", 10, "number of candidates to print (0 for all)")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while searching")
	fl.BoolVar(&f.trace, "trace", false, "write OpenTelemetry spans to stderr")
	fl.BoolVar(&f.tracePretty, "trace-pretty", false, "indent exported spans")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	_ = cmd.MarkFlagRequired("crib")
	return cmd
}

// options merges the configuration file with the flags that were given.
func (f *bombeFlags) options(cmd *cobra.Command, a *app) (bombe.Options, []load.Step, bool, int) {
	bc := a.cfg.Bombe
	fl := cmd.Flags()

	opts := bombe.Options{
		Crib:           f.crib,
		Ciphertext:     f.cipher,
		RotorTypes:     bc.Rotors,
		Reflector:      bc.Reflector,
		AllOrders:      bc.AllOrders,
		NoPlugboard:    bc.NoPlugboard,
		Workers:        bc.Workers,
		WorkerFraction: bc.WorkerFraction,
		LowPriority:    bc.LowPriority,
		Logger:         a.logger,
	}
	if fl.Changed("rotors") {
		opts.RotorTypes = splitList(f.rotors)
	}
	if fl.Changed("reflector") {
		opts.Reflector = strings.ToUpper(f.reflector)
	}
	if fl.Changed("all-orders") {
		opts.AllOrders = f.allOrders
	}
	if fl.Changed("no-plugboard") {
		opts.NoPlugboard = f.noPlugboard
	}
	if fl.Changed("workers") {
		opts.Workers = f.workers
	}
	if fl.Changed("fraction") {
		opts.WorkerFraction = f.fraction
	}
	if fl.Changed("low-priority") {
		opts.LowPriority = f.lowPriority
	}
	throttle := bc.Throttle
	if fl.Changed("throttle") {
		throttle = f.throttle
	}
	top := bc.Top
	if fl.Changed("top") {
		top = f.top
	}
	return opts, bc.ThrottleSteps, throttle, top
}

func runBombe(cmd *cobra.Command, a *app, f *bombeFlags) error {
	opts, steps, throttle, top := f.options(cmd, a)
	if opts.Ciphertext == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read ciphertext: %w", err)
		}
		opts.Ciphertext = string(data)
	}
	if throttle {
		opts.Throttle = load.NewThrottle(load.NewProcessSampler(), steps, time.Second)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled: f.trace || a.cfg.Metrics.Trace,
		Output:  cmd.ErrOrStderr(),
		Pretty:  f.tracePretty,
		Version: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	addr := a.cfg.Metrics.Addr
	if cmd.Flags().Changed("metrics-addr") {
		addr = f.metricsAddr
	}
	if addr != "" {
		srv, err := serveMetrics(addr, a)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	e, err := bombe.NewEngine(opts)
	if err != nil {
		return err
	}
	stopOnSignal := context.AfterFunc(ctx, e.Stop)
	defer stopOnSignal()

	var sink bombe.ProgressFunc
	if !f.quiet {
		errOut := cmd.ErrOrStderr()
		sink = func(p bombe.Progress) { fmt.Fprintln(errOut, p.Message) }
	}
	found := e.Attack(ctx, sink)
	if ctx.Err() != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Search interrupted after %d of %d tasks\n", e.Tested(), e.TotalTasks())
	}

	out := cmd.OutOrStdout()
	if err := writeCandidates(out, found, top, isTerminal(out)); err != nil {
		return err
	}
	if len(found) > 0 {
		return writePlaintext(out, found[0], opts.Reflector, enigma.Letters(opts.Ciphertext))
	}
	return nil
}

// serveMetrics exposes the Prometheus registry on addr until shut down.
func serveMetrics(addr string, a *app) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
