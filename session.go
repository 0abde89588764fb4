package main

import (
	"context"
	"time"

	"voicerec/audio"
	"voicerec/beep"
	"voicerec/config"
	"voicerec/log"
	"voicerec/record"
	"voicerec/store"
)

const shutdownTimeout = 5 * time.Second

// session wires one Recorder to one Writer: every attempt that starts
// recording becomes one file.
type session struct {
	rec    *record.Recorder
	w      *store.Writer
	sink   EventSink
	prefix string
	saved  chan string

	// toggle reports whether the current recording was latched on; set
	// before the first attempt starts
	toggle func() bool
	// silence is replaced at each attempt start and only touched by the
	// capture goroutine afterwards
	silence *silenceMonitor
}

func newSession(actx audio.Context, cfg *config.Config, device *audio.DeviceInfo, sink EventSink) (*session, error) {
	s := &session{
		sink:   sink,
		prefix: cfg.Prefix,
		saved:  make(chan string, 16),
	}
	s.w = store.New(store.Config{
		Root:       cfg.Root,
		Dir:        cfg.RecordDir,
		CloseDelay: cfg.CloseDelay,
		OnSaved:    s.onSaved,
	})
	s.rec = record.New(actx, s)
	if err := cfg.Apply(s.rec); err != nil {
		return nil, err
	}
	if device != nil {
		rc := s.rec.Config()
		rc.Device = device
		s.rec.SetConfig(rc)
	}
	return s, nil
}

func (s *session) OnRecordingStart() {
	rc := s.rec.AttemptConfig()
	s.silence = newSilenceMonitor(rc.SampleRate*audio.FrameSize(rc.Layout, rc.Encoding), s.toggle)
	s.w.Open(s.prefix)
	s.sink.RecordingStart(s.prefix)
	beep.PlayStart()
}

func (s *session) OnRecording(data []byte, size int) {
	chunk := data[:size]
	s.w.Append(chunk)
	level := audio.Level(chunk)
	s.sink.AudioLevel(level)

	switch s.silence.Feed(size, level) {
	case SilenceWarn:
		log.Warn("no_input_detected")
		s.sink.InputWarning(true)
		beep.PlayError()
	case SilenceWarnClear:
		log.Info("input_resumed")
		s.sink.InputWarning(false)
	case SilenceRepeat:
		beep.PlayError()
	case SilenceAutoClose:
		log.Info("silence_auto_close")
		s.rec.Stop()
	}
}

func (s *session) OnRecordCreateError() {
	log.Error("capture device could not be opened")
	s.sink.Error("could not open the capture device")
	beep.PlayError()
}

func (s *session) OnRecordingFailed() {
	log.Error("recording could not start")
	s.sink.Error("recording could not start")
}

func (s *session) OnRecordingEnd() {
	s.w.Close()
	s.sink.RecordingStop()
	beep.PlayEnd()
}

func (s *session) onSaved(path string, n int) {
	s.sink.FileSaved(path, n)
	select {
	case s.saved <- path:
	default:
	}
}

// begin starts a new attempt once the previous one has fully exited. It is
// a no-op while an attempt is running and not asked to stop.
func (s *session) begin() {
	switch s.rec.State() {
	case record.StateInitializing, record.StateRecording:
		return
	}
	<-s.rec.Done()
	s.rec.Start()
}

func (s *session) end() {
	s.rec.Stop()
}

func (s *session) stopAndWait() {
	s.rec.Stop()
	<-s.rec.Done()
}

// shutdown stops capture and waits for pending files to be written.
func (s *session) shutdown() error {
	s.stopAndWait()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.w.Shutdown(ctx)
}
