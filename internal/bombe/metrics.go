package bombe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("enigma.bombe")

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enigma_bombe_tasks_total",
		Help: "Search tasks evaluated, by outcome",
	}, []string{"outcome"})

	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enigma_bombe_candidates_total",
		Help: "Candidate settings accepted",
	})

	attackDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enigma_bombe_attack_duration_seconds",
		Help:    "Wall-clock duration of a search",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"result"})

	workersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "enigma_bombe_workers_active",
		Help: "Search workers currently running",
	})
)

// outcome labels; index matches taskCounts.
const (
	outcomeRejected = iota
	outcomeExact
	outcomeDeduced
	outcomePartial
	outcomeFault
	numOutcomes
)

var outcomeNames = [numOutcomes]string{"rejected", "exact", "deduced", "partial", "fault"}

// taskCounts is kept per worker and flushed once, so the hot loop touches
// no shared counter.
type taskCounts [numOutcomes]int64

func (c *taskCounts) record(st status, accepted bool) {
	switch {
	case !accepted:
		c[outcomeRejected]++
	case st == statusExact:
		c[outcomeExact]++
	case st == statusDeduced:
		c[outcomeDeduced]++
	default:
		c[outcomePartial]++
	}
}

func (c *taskCounts) flush() {
	for i, n := range c {
		if n > 0 {
			tasksTotal.WithLabelValues(outcomeNames[i]).Add(float64(n))
		}
	}
}

func startAttackSpan(ctx context.Context, e *Engine, total int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Attack",
		trace.WithAttributes(
			attribute.String("bombe.run_id", e.runID),
			attribute.Int("bombe.crib_length", len(e.crib)),
			attribute.Int("bombe.orders", len(e.orders)),
			attribute.Int("bombe.offsets", e.offsets()),
			attribute.Int64("bombe.tasks", total),
			attribute.Bool("bombe.deduce_plugboard", e.deducePlugboard),
			attribute.Int("bombe.workers", e.workers),
		),
	)
}

func recordAttack(span trace.Span, elapsed time.Duration, tested int64, found int, stopped bool) {
	result := "completed"
	if stopped {
		result = "stopped"
	}
	span.SetAttributes(
		attribute.Int64("bombe.tested", tested),
		attribute.Int("bombe.candidates", found),
		attribute.String("bombe.result", result),
	)
	attackDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	candidatesTotal.Add(float64(found))
}
