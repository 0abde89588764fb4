package hotkey

import (
	"context"
	"sync/atomic"
	"time"
)

type Mode string

const (
	ModePTT    Mode = "ptt"
	ModeToggle Mode = "toggle"
)

// Trigger turns raw key events into recording boundaries. A press always
// begins a recording; holding past longPress makes it push-to-talk (release
// ends it), a shorter tap toggles it on until the next press is released.
type Trigger struct {
	begin  chan Mode
	end    chan struct{}
	toggle atomic.Bool
}

func NewTrigger(ctx context.Context, hk Hotkey, longPress time.Duration) *Trigger {
	t := &Trigger{
		begin: make(chan Mode, 1),
		end:   make(chan struct{}, 1),
	}
	go t.run(ctx, hk, longPress)
	return t
}

// Begin receives ModeToggle at every press; the mode is only settled later.
func (t *Trigger) Begin() <-chan Mode { return t.begin }

func (t *Trigger) End() <-chan struct{} { return t.end }

// IsToggle reports whether the current recording was started by a tap.
func (t *Trigger) IsToggle() bool { return t.toggle.Load() }

func (t *Trigger) run(ctx context.Context, hk Hotkey, longPress time.Duration) {
	for {
		t.toggle.Store(false)
		select {
		case <-hk.Keydown():
		case <-ctx.Done():
			return
		}
		select {
		case t.begin <- ModeToggle:
		case <-ctx.Done():
			return
		}

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// held: release ends it
			select {
			case <-hk.Keyup():
			case <-ctx.Done():
				return
			}
		case <-hk.Keyup():
			timer.Stop()
			t.toggle.Store(true)
			if !waitPress(ctx, hk) {
				return
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
		notify(t.end)
	}
}

// waitPress blocks for a full press and release.
func waitPress(ctx context.Context, hk Hotkey) bool {
	for _, ch := range []<-chan struct{}{hk.Keydown(), hk.Keyup()} {
		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
