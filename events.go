package main

import (
	"fmt"
	"io"
	"sync"
)

// EventSink abstracts the display layer so the TUI and plain line output
// receive the same recording events. AudioLevel is called on the capture
// goroutine and must not block.
type EventSink interface {
	RecordingStart(prefix string)
	RecordingStop()
	AudioLevel(level float64)
	// InputWarning reports the microphone going silent (true) or coming
	// back (false) during a recording.
	InputWarning(silent bool)
	FileSaved(path string, n int)
	DeviceLine(text string)
	Error(text string)
}

type lineSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: w}
}

func (s *lineSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format+"\n", args...)
}

func (s *lineSink) RecordingStart(prefix string) { s.printf("● recording (%s)", prefix) }
func (s *lineSink) RecordingStop()               { s.printf("○ stopped") }
func (s *lineSink) AudioLevel(float64)           {}
func (s *lineSink) FileSaved(path string, n int) { s.printf("saved %s (%s)", path, formatBytes(n)) }
func (s *lineSink) DeviceLine(text string)       { s.printf("%s", text) }
func (s *lineSink) Error(text string)            { s.printf("error: %s", text) }

func (s *lineSink) InputWarning(silent bool) {
	if silent {
		s.printf("⚠ no input detected")
		return
	}
	s.printf("input detected")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
