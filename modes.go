package main

import (
	"context"
	"fmt"
	"time"

	"voicerec/hotkey"
	"voicerec/log"
)

// runContinuous records one file until ctx ends, d elapses (when positive)
// or the attempt ends on its own.
func runContinuous(ctx context.Context, s *session, d time.Duration) error {
	s.begin()
	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
	case <-timeout:
		log.Info("duration_reached")
	case <-s.rec.Done():
	}
	s.stopAndWait()
	if err := s.rec.Err(); err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	return nil
}

// runHold records while the hotkey is held.
func runHold(ctx context.Context, s *session, hk hotkey.Hotkey) error {
	for {
		select {
		case <-ctx.Done():
			s.stopAndWait()
			return nil
		case <-hk.Keydown():
			log.Info("hotkey_down")
			s.begin()
		case <-hk.Keyup():
			log.Info("hotkey_up")
			s.end()
		}
	}
}

// runHybrid records on tap-to-toggle or hold-to-talk with the same combo.
func runHybrid(ctx context.Context, s *session, hk hotkey.Hotkey, longPress time.Duration) error {
	tr := hotkey.NewTrigger(ctx, hk, longPress)
	s.toggle = tr.IsToggle
	for {
		select {
		case <-ctx.Done():
			s.stopAndWait()
			return nil
		case mode := <-tr.Begin():
			log.Info("hotkey_begin_" + string(mode))
			s.begin()
		case <-tr.End():
			log.Infof("hotkey_end toggle=%t", tr.IsToggle())
			s.end()
		}
	}
}
