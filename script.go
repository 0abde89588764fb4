package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"voicerec/audio"
	"voicerec/hotkey"
	"voicerec/log"
)

// runScript drives a hold-to-record session from line commands, for
// headless end-to-end runs against a fake audio context:
//
//	KEYDOWN, KEYUP      press or release the hotkey
//	WAIT                block until the next file is saved
//	WAIT_AUDIO_DONE     block until the fake source has replayed its input
//	SLEEP <ms>
//	QUIT
func runScript(ctx context.Context, s *session, fake *audio.FakeContext, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hk := hotkey.NewFake()
	done := make(chan error, 1)
	go func() { done <- runHold(ctx, s, hk) }()

	// sources that existed before the latest KEYDOWN
	seen := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "KEYDOWN":
			seen = len(fake.Sources())
			hk.SimKeydown()
		case cmd == "KEYUP":
			hk.SimKeyup()
		case cmd == "WAIT":
			select {
			case <-s.saved:
			case <-ctx.Done():
			}
		case cmd == "WAIT_AUDIO_DONE":
			waitAudioDone(ctx, fake, seen)
		case cmd == "QUIT":
			cancel()
			return <-done
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "":
		default:
			log.Warnf("script: unknown command %q", cmd)
		}
	}
	cancel()
	return <-done
}

// waitAudioDone waits for the first source created after the first skip to
// finish its input. The source is created on the capture goroutine, so it
// may not exist yet.
func waitAudioDone(ctx context.Context, fake *audio.FakeContext, skip int) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if srcs := fake.Sources(); len(srcs) > skip {
			select {
			case <-srcs[skip].AudioDone():
			case <-ctx.Done():
			}
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
