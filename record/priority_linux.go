//go:build linux

package record

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// audioNiceness matches the urgent-audio class of mobile platforms.
const audioNiceness = -19

// elevatePriority pins the calling goroutine to its OS thread and raises
// that thread's scheduling priority. Without CAP_SYS_NICE the setpriority
// call fails; the thread stays pinned either way.
func elevatePriority() error {
	runtime.LockOSThread()
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), audioNiceness)
}
