package bombe

import (
	"fmt"
	"sync"
	"time"
)

// ProgressKind tells a progress sink what a message is about.
type ProgressKind int

const (
	ProgressSummary ProgressKind = iota // task totals before the search
	ProgressMode                        // modes and worker count in effect
	ProgressMenu                        // menu loop analysis
	ProgressTick                        // periodic completed-task count
	ProgressFault                       // a task failed unexpectedly and was skipped
	ProgressDone                        // final candidate count and elapsed time
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressSummary:
		return "summary"
	case ProgressMode:
		return "mode"
	case ProgressMenu:
		return "menu"
	case ProgressTick:
		return "progress"
	case ProgressFault:
		return "fault"
	case ProgressDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress is one message to a progress sink. Done and Total are set on
// summary and tick messages.
type Progress struct {
	Kind    ProgressKind
	Message string
	Done    int64
	Total   int64
}

// ProgressFunc receives progress messages. Calls come from worker
// goroutines but never overlap.
type ProgressFunc func(Progress)

// ProgressInterval is the number of completed tasks between ticks.
const ProgressInterval = 5000

// reporter serialises calls into the caller's sink.
type reporter struct {
	mu   sync.Mutex
	sink ProgressFunc
}

func newReporter(sink ProgressFunc) *reporter {
	return &reporter{sink: sink}
}

func (r *reporter) send(p Progress) {
	if r.sink == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink(p)
}

func (r *reporter) printf(kind ProgressKind, format string, args ...any) {
	r.send(Progress{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (r *reporter) tick(done, total int64) {
	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	r.send(Progress{
		Kind:    ProgressTick,
		Message: fmt.Sprintf("Progress: %d/%d (%.1f%%)", done, total, pct),
		Done:    done,
		Total:   total,
	})
}

// formatElapsed renders a duration the way the final summary reports it.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("Processing time: %.2f seconds", d.Seconds())
	}
	minutes := int(d / time.Minute)
	seconds := (d % time.Minute).Seconds()
	return fmt.Sprintf("Processing time: %d minutes %.2f seconds", minutes, seconds)
}
