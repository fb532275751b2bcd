//go:build !linux

package load

// LowerThreadPriority is a no-op where per-thread priority is unavailable.
func LowerThreadPriority() error { return nil }
