//go:build unix

package load

import (
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ProcessSampler measures user+system CPU time of this process between
// calls, divided by wall time and CPU count.
type ProcessSampler struct {
	mu       sync.Mutex
	lastCPU  time.Duration
	lastWall time.Time
}

func NewProcessSampler() *ProcessSampler {
	s := &ProcessSampler{}
	if cpu, ok := processCPU(); ok {
		s.lastCPU = cpu
		s.lastWall = time.Now()
	}
	return s
}

func (s *ProcessSampler) Utilization() (float64, bool) {
	cpu, ok := processCPU()
	if !ok {
		return 0, false
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastWall.IsZero() {
		s.lastCPU, s.lastWall = cpu, now
		return 0, false
	}
	wall := now.Sub(s.lastWall)
	used := cpu - s.lastCPU
	s.lastCPU, s.lastWall = cpu, now
	if wall <= 0 {
		return 0, false
	}
	return 100 * float64(used) / (float64(wall) * float64(runtime.NumCPU())), true
}

func processCPU() (time.Duration, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano()), true
}
