package main

import "time"

const (
	silenceTick      = 100 * time.Millisecond
	silenceWarnAfter = 8 * time.Second
	silenceAutoClose = 30 * time.Second

	// inputLevel is the RMS above which a tick counts as live input,
	// about -40 dBFS.
	inputLevel      = 0.01
	inputMinRatio   = 0.10
	inputClearRatio = 0.25 // above inputMinRatio so the warning does not flap
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no input for silenceWarnAfter
	SilenceWarnClear              // input resumed after a warning
	SilenceRepeat                 // still silent, remind again
	SilenceAutoClose              // toggle recording silent for silenceAutoClose
)

// silenceMonitor watches a recording for a muted or wrong microphone. It is
// fed from the capture goroutine only and keeps a ring of per-tick verdicts.
type silenceMonitor struct {
	warnAt   int
	windowSz int
	tickLen  int // bytes of audio per tick

	isToggle func() bool

	pending int // bytes fed since the last tick
	peak    float64

	ticks     int
	window    []bool
	liveCount int
	warned    bool
	lastWarn  int
}

// newSilenceMonitor sizes ticks for audio arriving at bytesPerSec.
func newSilenceMonitor(bytesPerSec int, isToggle func() bool) *silenceMonitor {
	windowSz := int(silenceAutoClose / silenceTick)
	return &silenceMonitor{
		warnAt:   int(silenceWarnAfter / silenceTick),
		windowSz: windowSz,
		tickLen:  max(1, int(int64(bytesPerSec)*int64(silenceTick)/int64(time.Second))),
		isToggle: isToggle,
		window:   make([]bool, windowSz),
	}
}

// Feed accounts n bytes of audio at level and returns the strongest event
// raised by the ticks they complete.
func (m *silenceMonitor) Feed(n int, level float64) SilenceEvent {
	m.pending += n
	m.peak = max(m.peak, level)
	ev := SilenceNone
	for m.pending >= m.tickLen {
		m.pending -= m.tickLen
		if e := m.Tick(m.peak >= inputLevel); e > ev {
			ev = e
		}
		m.peak = level
	}
	return ev
}

func (m *silenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

// Tick records one tick's verdict.
func (m *silenceMonitor) Tick(live bool) SilenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.liveCount--
	}
	m.window[idx] = live
	if live {
		m.liveCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)
	if m.ticks >= m.warnAt && r < inputMinRatio && !m.warned {
		m.warned = true
		m.lastWarn = m.ticks
		return SilenceWarn
	}
	if m.warned && r >= inputClearRatio {
		m.warned = false
		return SilenceWarnClear
	}

	if m.isToggle == nil || !m.isToggle() {
		return SilenceNone
	}

	// auto-close wins over a repeat due on the same tick
	if m.ticks >= m.windowSz && float64(m.liveCount)/float64(m.windowSz) < inputMinRatio {
		return SilenceAutoClose
	}
	if m.warned && m.ticks-m.lastWarn >= m.warnAt {
		m.lastWarn = m.ticks
		return SilenceRepeat
	}
	return SilenceNone
}
