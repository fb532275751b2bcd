// Package bombe runs a known-plaintext attack on the three-rotor Enigma.
// For every rotor order, crib offset and start position it works out a
// plugboard that would turn the crib into the ciphertext, and keeps the
// settings that verify.
package bombe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pollux/enigma/internal/enigma"
	"github.com/pollux/enigma/internal/load"
	"github.com/pollux/enigma/internal/logging"
)

// PositionsPerOrder is the number of start position triples per order and
// offset.
const PositionsPerOrder = 26 * 26 * 26

// menuLoopsShown is how many menu loops the summary lists, and
// menuLoopLimit how many it counts.
const (
	menuLoopsShown = 5
	menuLoopLimit  = 64
)

// Options configures one search.
type Options struct {
	Crib       string
	Ciphertext string

	// RotorTypes is the fixed left-to-right order, or the pool to draw
	// orders from when AllOrders is set.
	RotorTypes []string
	Reflector  string
	AllOrders  bool

	// NoPlugboard turns plugboard deduction off. Settings are then kept
	// when they match at least half of the crib without a plugboard.
	NoPlugboard bool

	// Workers fixes the pool size. Zero means WorkerFraction of the CPUs.
	Workers        int
	WorkerFraction float64

	// LowPriority renices worker threads where the platform allows it.
	LowPriority bool

	// Throttle, if set, pauses workers while the process is busy.
	Throttle *load.Throttle

	Logger *slog.Logger
}

type rotorOrder struct {
	names [3]string
	defs  [3]*enigma.RotorDefinition
}

// Engine holds the state of one search. Attack may be called once; Stop
// may be called from any goroutine at any time.
type Engine struct {
	runID           string
	crib            []int
	cipher          []int
	cribText        string
	cipherText      string
	orders          []rotorOrder
	poolSize        int
	reflector       *enigma.ReflectorDefinition
	deducePlugboard bool
	allOrders       bool
	workers         int
	lowPriority     bool
	throttle        *load.Throttle
	logger          *slog.Logger

	stopped atomic.Bool
	tested  atomic.Int64
	faults  atomic.Int64
	results results
}

// NewEngine validates opts. Crib and ciphertext are upper-cased and
// stripped of everything but letters first.
func NewEngine(opts Options) (*Engine, error) {
	crib := enigma.Letters(opts.Crib)
	cipher := enigma.Letters(opts.Ciphertext)
	if crib == "" {
		return nil, ErrEmptyCrib
	}
	if len(crib) > len(cipher) {
		return nil, fmt.Errorf("%w: %d > %d", ErrCribTooLong, len(crib), len(cipher))
	}

	refl, err := enigma.LookupReflector(opts.Reflector)
	if err != nil {
		return nil, err
	}
	for _, name := range opts.RotorTypes {
		if _, err := enigma.LookupRotor(name); err != nil {
			return nil, err
		}
	}
	names, err := RotorOrders(opts.RotorTypes, opts.AllOrders)
	if err != nil {
		return nil, err
	}
	orders := make([]rotorOrder, len(names))
	for i, n := range names {
		orders[i].names = n
		for j, name := range n {
			orders[i].defs[j], _ = enigma.LookupRotor(name)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = load.PoolSize(opts.WorkerFraction)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	e := &Engine{
		runID:           uuid.NewString(),
		crib:            indices(crib),
		cipher:          indices(cipher),
		cribText:        crib,
		cipherText:      cipher,
		orders:          orders,
		poolSize:        len(opts.RotorTypes),
		reflector:       refl,
		deducePlugboard: !opts.NoPlugboard,
		allOrders:       opts.AllOrders,
		workers:         workers,
		lowPriority:     opts.LowPriority,
		throttle:        opts.Throttle,
	}
	e.logger = logger.With("run_id", e.runID)
	return e, nil
}

func indices(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i] - 'A')
	}
	return out
}

// RunID identifies this search in logs and traces.
func (e *Engine) RunID() string { return e.runID }

// Workers is the pool size the search will use.
func (e *Engine) Workers() int { return e.workers }

// Orders lists the rotor orders the search covers.
func (e *Engine) Orders() [][3]string {
	out := make([][3]string, len(e.orders))
	for i, o := range e.orders {
		out[i] = o.names
	}
	return out
}

// TotalTasks is orders x offsets x 26^3.
func (e *Engine) TotalTasks() int64 {
	return int64(len(e.orders)) * int64(e.offsets()) * PositionsPerOrder
}

// Tested is the number of tasks completed so far.
func (e *Engine) Tested() int64 { return e.tested.Load() }

// Found is the number of candidates accepted so far.
func (e *Engine) Found() int { return e.results.count() }

// Stop asks a running or future Attack to start no further tasks. Attack
// then returns what it has found so far.
func (e *Engine) Stop() { e.stopped.Store(true) }

func (e *Engine) offsets() int {
	return len(e.cipher) - len(e.crib) + 1
}

// Attack searches every task and returns the accepted candidates, best
// first. Cancelling ctx has the same effect as Stop. Finding nothing is not
// an error: the result is then empty.
func (e *Engine) Attack(ctx context.Context, sink ProgressFunc) []Candidate {
	start := time.Now()
	total := e.TotalTasks()
	report := newReporter(sink)

	ctx, span := startAttackSpan(ctx, e, total)
	defer span.End()

	e.announce(report, total)
	e.logger.Info("bombe attack started",
		"tasks", total,
		"orders", len(e.orders),
		"offsets", e.offsets(),
		"workers", e.workers,
		"deduce_plugboard", e.deducePlugboard,
	)

	tasks := make(chan task, e.workers*64)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < e.workers; w++ {
		g.Go(func() error {
			e.work(gctx, tasks, total, report)
			return nil
		})
	}
	e.dispatch(gctx, tasks)
	_ = g.Wait()

	found := e.results.sorted()
	elapsed := time.Since(start)
	stopped := e.stopped.Load() || ctx.Err() != nil
	recordAttack(span, elapsed, e.tested.Load(), len(found), stopped)

	report.printf(ProgressDone, "Found %d candidates", len(found))
	report.send(Progress{Kind: ProgressDone, Message: formatElapsed(elapsed)})
	e.logger.Info("bombe attack finished",
		"tested", e.tested.Load(),
		"candidates", len(found),
		"faults", e.faults.Load(),
		"stopped", stopped,
		"elapsed", elapsed,
	)
	return found
}

func (e *Engine) announce(report *reporter, total int64) {
	report.send(Progress{
		Kind: ProgressSummary,
		Message: fmt.Sprintf("Total combinations: %d (positions: %d, orders: %d, offsets: %d)",
			total, PositionsPerOrder, len(e.orders), e.offsets()),
		Total: total,
	})
	if e.allOrders && e.poolSize > 3 {
		report.printf(ProgressSummary, "Rotor combinations: %d (from %d rotors)", len(e.orders), e.poolSize)
	}
	report.printf(ProgressMode, "Test all rotor orders: %t", e.allOrders)
	report.printf(ProgressMode, "Search without plugboard: %t", !e.deducePlugboard)
	report.printf(ProgressMode, "Using %d workers (%d CPUs)", e.workers, runtime.NumCPU())

	loops := FindLoops(e.cribText, e.cipherText[:len(e.cribText)], menuLoopLimit)
	report.send(Progress{Kind: ProgressMenu, Message: menuHeadline(len(loops))})
	for _, l := range loops[:min(len(loops), menuLoopsShown)] {
		report.printf(ProgressMenu, "  Loop: %s", l)
	}
}

func menuHeadline(n int) string {
	switch {
	case n == 0:
		return "No loops found in menu at offset 0"
	case n >= menuLoopLimit:
		return fmt.Sprintf("Found at least %d loops in menu at offset 0", n)
	default:
		return fmt.Sprintf("Found %d loops in menu at offset 0", n)
	}
}

// dispatch feeds every task to the workers in order, checking the stop
// flag before each one, and closes tasks when done or stopped.
func (e *Engine) dispatch(ctx context.Context, tasks chan<- task) {
	defer close(tasks)
	offsets := e.offsets()
	for o := range e.orders {
		for off := 0; off < offsets; off++ {
			for a := 0; a < 26; a++ {
				for b := 0; b < 26; b++ {
					for c := 0; c < 26; c++ {
						if e.stopped.Load() {
							return
						}
						t := task{order: o, offset: off, positions: [3]int{a, b, c}}
						select {
						case tasks <- t:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}
}

func (e *Engine) work(ctx context.Context, tasks <-chan task, total int64, report *reporter) {
	workersActive.Inc()
	defer workersActive.Dec()

	if e.lowPriority {
		if err := load.LowerThreadPriority(); err != nil {
			e.logger.Debug("could not lower worker priority", "error", err)
		}
	}

	s := newSolver(e)
	var counts taskCounts
	defer counts.flush()

	for t := range tasks {
		// Keep draining after a stop so dispatch never blocks.
		if e.stopped.Load() || ctx.Err() != nil {
			continue
		}
		e.throttle.Pause(ctx)
		e.run(s, t, &counts, report)

		if n := e.tested.Add(1); n%ProgressInterval == 0 {
			report.tick(n, total)
		}
	}
}

// run evaluates one task. A panic is confined to the task: it is counted,
// logged and reported, and the worker carries on.
func (e *Engine) run(s *solver, t task, counts *taskCounts, report *reporter) {
	defer func() {
		if r := recover(); r != nil {
			counts[outcomeFault]++
			e.faults.Add(1)
			e.logger.Error("bombe task failed",
				"rotors", e.orders[t.order].names,
				"positions", enigma.FormatPositions(t.positions),
				"offset", t.offset,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			report.printf(ProgressFault, "Task %s %s offset %d failed: %v",
				fmtOrder(e.orders[t.order].names), enigma.FormatPositions(t.positions), t.offset, r)
		}
	}()

	c, st, ok := s.evaluate(t)
	counts.record(st, ok)
	if ok {
		e.results.add(c)
		e.logger.Debug("candidate found",
			"rotors", c.RotorString(),
			"positions", c.PositionString(),
			"offset", c.Offset,
			"pairs", c.Pairs(),
			"score", c.Score,
		)
	}
}

func fmtOrder(names [3]string) string {
	return names[0] + "-" + names[1] + "-" + names[2]
}
