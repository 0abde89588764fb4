//go:build !linux

package record

import "runtime"

// elevatePriority pins the capture goroutine to its OS thread. The audio
// backends on these platforms already run their device threads at real-time
// priority, so there is nothing to raise here.
func elevatePriority() error {
	runtime.LockOSThread()
	return nil
}
