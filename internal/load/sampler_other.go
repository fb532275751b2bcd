//go:build !unix

package load

// ProcessSampler has no data source on this platform; the throttle stays
// at zero delay.
type ProcessSampler struct{}

func NewProcessSampler() *ProcessSampler { return &ProcessSampler{} }

func (*ProcessSampler) Utilization() (float64, bool) { return 0, false }
