//go:build linux

package load

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// WorkerNice is the niceness given to search worker threads.
const WorkerNice = 10

// LowerThreadPriority pins the calling goroutine to its OS thread and
// renices that thread. The thread stays pinned, so call it only from a
// goroutine that exits when its work is done; the runtime then discards
// the reniced thread instead of reusing it.
func LowerThreadPriority() error {
	runtime.LockOSThread()
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), WorkerNice)
}
