//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The hotkey package needs the main thread for its event loop on these
// platforms.
func main() {
	mainthread.Init(execute)
}
