// Package beep plays short audible cues when recording starts, ends or
// runs into trouble. Cues are off until Enable is called.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

const sampleRate = 44100

type Cue int

const (
	CueStart Cue = iota
	CueEnd
	CueError
)

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	// repeat plays the tick twice with this much silence in between
	repeat float64
}

var tones = map[Cue]tone{
	CueStart: {freq: 1200, duration: 0.03, volume: 0.5, decay: 60},
	CueEnd:   {freq: 900, duration: 0.05, volume: 0.5, decay: 40},
	CueError: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 0.05},
}

var (
	enabled atomic.Bool

	cacheMu sync.Mutex
	cache   = map[Cue][]byte{}
)

func Enable()       { enabled.Store(true) }
func Disable()      { enabled.Store(false) }
func Enabled() bool { return enabled.Load() }

// Play starts c in the background. It never blocks the caller.
func Play(c Cue) {
	if !enabled.Load() {
		return
	}
	pcm := samples(c)
	if len(pcm) == 0 {
		return
	}
	go play(pcm)
}

func PlayStart() { Play(CueStart) }
func PlayEnd()   { Play(CueEnd) }
func PlayError() { Play(CueError) }

// samples returns the mono PCM16 rendering of c at sampleRate.
func samples(c Cue) []byte {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if pcm, ok := cache[c]; ok {
		return pcm
	}
	t, ok := tones[c]
	if !ok {
		return nil
	}
	pcm := generateTick(sampleRate, t)
	if t.repeat > 0 {
		gap := make([]byte, int(sampleRate*t.repeat)*2)
		tick := pcm
		pcm = make([]byte, 0, len(tick)*2+len(gap))
		pcm = append(pcm, tick...)
		pcm = append(pcm, gap...)
		pcm = append(pcm, tick...)
	}
	cache[c] = pcm
	return pcm
}

func generateTick(rate int, t tone) []byte {
	n := int(float64(rate) * t.duration)
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(rate)
		envelope := math.Exp(-x * t.decay)
		s := int16(math.Sin(2*math.Pi*t.freq*x) * 32767 * t.volume * envelope)
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}
