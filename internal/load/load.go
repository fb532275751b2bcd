// Package load keeps a long search from monopolising the host: it sizes the
// worker pool to a fraction of the CPUs, lowers worker thread priority, and
// backs off when the process is using most of the machine.
package load

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFraction is the share of CPUs given to search workers.
const DefaultFraction = 0.75

// PoolSize returns floor(fraction * NumCPU), at least 1. A fraction outside
// (0, 1] falls back to DefaultFraction.
func PoolSize(fraction float64) int {
	return poolSize(fraction, runtime.NumCPU())
}

func poolSize(fraction float64, cpus int) int {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultFraction
	}
	n := int(float64(cpus) * fraction)
	if n < 1 {
		n = 1
	}
	return n
}

// Step pauses each unit of work for Delay once utilisation exceeds Above
// percent.
type Step struct {
	Above float64       `yaml:"above" validate:"gt=0,lte=100"`
	Delay time.Duration `yaml:"delay" validate:"gte=0"`
}

// DefaultSteps are 1, 5 and 10 ms pauses above 85, 90 and 95 percent.
func DefaultSteps() []Step {
	return []Step{
		{Above: 85, Delay: time.Millisecond},
		{Above: 90, Delay: 5 * time.Millisecond},
		{Above: 95, Delay: 10 * time.Millisecond},
	}
}

// Sampler reports process CPU utilisation in percent of the whole machine.
// ok is false when no measurement is available.
type Sampler interface {
	Utilization() (pct float64, ok bool)
}

// Throttle turns utilisation samples into a per-task pause. Sampling
// happens at most once per interval however many workers call Pause.
type Throttle struct {
	sampler   Sampler
	steps     []Step
	sometimes *rate.Sometimes
	delay     atomic.Int64
}

// NewThrottle builds a throttle. A nil sampler means ProcessSampler.
func NewThrottle(sampler Sampler, steps []Step, interval time.Duration) *Throttle {
	if sampler == nil {
		sampler = NewProcessSampler()
	}
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	if interval <= 0 {
		interval = time.Second
	}
	sorted := append([]Step(nil), steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Above > sorted[j].Above })
	return &Throttle{
		sampler:   sampler,
		steps:     sorted,
		sometimes: &rate.Sometimes{Interval: interval},
	}
}

// Delay is the pause currently applied per task.
func (t *Throttle) Delay() time.Duration {
	if t == nil {
		return 0
	}
	return time.Duration(t.delay.Load())
}

// Pause refreshes the utilisation sample when due and sleeps for the
// resulting delay, returning early if ctx is done. A nil Throttle never
// pauses.
func (t *Throttle) Pause(ctx context.Context) {
	if t == nil {
		return
	}
	t.sometimes.Do(t.sample)

	d := t.Delay()
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (t *Throttle) sample() {
	pct, ok := t.sampler.Utilization()
	if !ok {
		t.delay.Store(0)
		return
	}
	t.delay.Store(int64(t.delayFor(pct)))
}

func (t *Throttle) delayFor(pct float64) time.Duration {
	for _, s := range t.steps {
		if pct > s.Above {
			return s.Delay
		}
	}
	return 0
}
