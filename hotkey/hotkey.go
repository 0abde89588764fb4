// Package hotkey delivers the global Ctrl+Shift+Space push-to-talk combo.
package hotkey

// Combo is the human readable form of the registered key combination.
const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// notify sends without blocking; a pending signal already covers this one.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
