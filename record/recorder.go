package record

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"voicerec/audio"
	"voicerec/log"
)

type State int

const (
	StateIdle State = iota
	StateInitializing
	StateRecording
	StateStopRequested
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRecording:
		return "recording"
	case StateStopRequested:
		return "stop_requested"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var errNoContext = errors.New("record: no audio context")

// Recorder runs one capture attempt at a time on a dedicated goroutine pinned
// to its OS thread. Chunks go to the Observer synchronously on that goroutine.
type Recorder struct {
	actx audio.Context
	obs  Observer

	// stMu guards the attempt bookkeeping below, never held across callbacks.
	stMu    sync.Mutex
	cfg     Config
	attempt Config
	running bool
	state   State
	done    chan struct{}
	err     error
	bufSize int

	// stop is only acted on at a loop boundary, while mu is held.
	stop atomic.Bool

	// mu guards src and serializes chunk delivery with teardown.
	mu  sync.Mutex
	src audio.Source
}

func New(actx audio.Context, obs Observer) *Recorder {
	if obs == nil {
		obs = Funcs{}
	}
	done := make(chan struct{})
	close(done)
	return &Recorder{
		actx: actx,
		obs:  obs,
		cfg:  DefaultConfig(),
		done: done,
	}
}

// Configure sets one parameter for the next attempt. Unknown keys are ignored.
func (r *Recorder) Configure(key Key, value int) {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	r.cfg.set(key, value)
}

// Param returns the configured value for key, or -1 for an unknown key.
func (r *Recorder) Param(key Key) int {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.cfg.get(key)
}

func (r *Recorder) SetConfig(cfg Config) {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	r.cfg = cfg
}

func (r *Recorder) Config() Config {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.cfg
}

// AttemptConfig is the configuration the current or last attempt started
// with. Configure calls made since then do not show up here.
func (r *Recorder) AttemptConfig() Config {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.attempt
}

func (r *Recorder) State() State {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.state
}

// BufferSize is the effective read size of the most recent attempt.
func (r *Recorder) BufferSize() int {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.bufSize
}

// Done is closed when the current attempt's goroutine has exited.
func (r *Recorder) Done() <-chan struct{} {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.done
}

// Err reports why the last attempt ended early, nil after a clean stop.
func (r *Recorder) Err() error {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	return r.err
}

// Start launches a capture attempt unless one is already running.
func (r *Recorder) Start() {
	r.stMu.Lock()
	if r.running {
		r.stMu.Unlock()
		return
	}
	if r.actx == nil {
		r.state = StateFailed
		r.err = errNoContext
		r.stMu.Unlock()
		log.Error("recorder: start failed: no audio context")
		r.obs.OnRecordingFailed()
		return
	}
	cfg := r.cfg
	r.attempt = cfg
	done := make(chan struct{})
	r.running = true
	r.state = StateInitializing
	r.err = nil
	r.done = done
	r.stop.Store(false)
	r.stMu.Unlock()

	go r.run(cfg, done)
}

// Stop asks the running attempt to finish after the chunk it is reading.
// It returns immediately and is a no-op when nothing runs. An attempt still
// initializing moves straight to StateStopRequested.
func (r *Recorder) Stop() {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	if !r.running {
		return
	}
	r.stop.Store(true)
	if r.state == StateRecording || r.state == StateInitializing {
		r.state = StateStopRequested
	}
}

func (r *Recorder) finish(s State, err error) {
	r.stMu.Lock()
	defer r.stMu.Unlock()
	r.state = s
	r.err = err
	r.running = false
}

func (r *Recorder) run(cfg Config, done chan struct{}) {
	defer close(done)
	id := uuid.NewString()

	if err := elevatePriority(); err != nil {
		log.Warnf("capture %s: priority not raised: %v", id, err)
	}

	src, size, err := r.open(cfg)
	if err == nil {
		err = src.Start()
		if err != nil {
			err = fmt.Errorf("start stream: %w", err)
		}
	}
	if err != nil {
		log.Errorf("capture %s: %v", id, err)
		r.teardown(id)
		r.obs.OnRecordCreateError()
		r.finish(StateFailed, err)
		return
	}

	log.SessionStart(id, log.SessionParams{
		Source:     int(cfg.Source),
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Layout.Channels(),
		BitDepth:   int(cfg.Encoding),
		BufferSize: size,
		Device:     deviceName(cfg.Device),
	})

	r.stMu.Lock()
	if r.state == StateInitializing {
		r.state = StateRecording
	}
	r.stMu.Unlock()
	r.obs.OnRecordingStart()

	chunks, total, err := r.loop(src, size)

	r.obs.OnRecordingEnd()
	r.teardown(id)
	log.SessionEnd(id, chunks, total, err)

	if err != nil {
		r.finish(StateFailed, err)
		return
	}
	r.finish(StateStopped, nil)
}

// open creates the source for cfg, or reuses one that is still held and
// initialized from an earlier attempt.
func (r *Recorder) open(cfg Config) (audio.Source, int, error) {
	minSize, err := r.actx.MinBufferSize(cfg.SampleRate, cfg.Layout, cfg.Encoding)
	if err != nil {
		return nil, 0, fmt.Errorf("min buffer size: %w", err)
	}
	if minSize < 0 {
		return nil, 0, fmt.Errorf("min buffer size %d: %w", minSize, audio.ErrBadValue)
	}
	size := effectiveBufferSize(cfg.BufferSize, minSize)

	r.stMu.Lock()
	r.bufSize = size
	r.stMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.src == nil {
		src, err := r.actx.NewSource(audio.SourceParams{
			Source:     cfg.Source,
			SampleRate: cfg.SampleRate,
			Layout:     cfg.Layout,
			Encoding:   cfg.Encoding,
			BufferSize: size,
			Device:     cfg.Device,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("create source: %w", err)
		}
		r.src = src
	}
	if r.src.State() != audio.StateInitialized {
		return nil, 0, fmt.Errorf("source not initialized: %w", audio.ErrIllegalState)
	}
	return r.src, size, nil
}

// loop reads until a stop is observed or a read fails. The chunk read when
// the stop is noticed is still delivered.
func (r *Recorder) loop(src audio.Source, size int) (chunks int, total int64, err error) {
	buf := make([]byte, size)
	for {
		n, err := src.Read(buf)
		if err != nil {
			return chunks, total, fmt.Errorf("read: %w", err)
		}

		r.mu.Lock()
		if n > 0 {
			r.obs.OnRecording(buf, n)
			chunks++
			total += int64(n)
		}
		exit := r.stop.Load()
		r.mu.Unlock()

		if exit {
			return chunks, total, nil
		}
	}
}

// teardown stops and releases the held source. It never panics.
func (r *Recorder) teardown(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("capture %s: teardown panic: %v", id, p)
			r.src = nil
		}
	}()

	if r.src == nil {
		return
	}
	if r.src.State() == audio.StateInitialized {
		if err := r.src.Stop(); err != nil {
			log.Warnf("capture %s: stop: %v", id, err)
		}
	}
	r.src.Release()
	r.src = nil
}

func deviceName(d *audio.DeviceInfo) string {
	if d == nil {
		return "default"
	}
	return d.Name
}
