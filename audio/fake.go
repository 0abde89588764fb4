package audio

import (
	"os"
	"sync"
	"time"
)

const fakeMinBufferSize = 640 // 20ms of 16 kHz mono PCM16

// FakeContext replays a fixed PCM buffer instead of a microphone. The
// exported fields let tests script platform failures; set them before the
// sources they should affect are created.
type FakeContext struct {
	pcm      []byte
	realtime bool

	mu sync.Mutex
	// MinBuffer is what MinBufferSize reports. Negative values emulate a
	// platform rejecting the rate/layout/encoding combination.
	MinBuffer int
	// NotReady makes new sources come up uninitialized.
	NotReady bool
	// StartErr is returned by Source.Start.
	StartErr error
	// ReadErr is returned by Read once FailAfter reads have succeeded.
	ReadErr   error
	FailAfter int

	sources []*FakeSource
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakePCMContext(data, realtime), nil
}

func NewFakePCMContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime, MinBuffer: fakeMinBufferSize}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) MinBufferSize(sampleRate int, layout Layout, enc Encoding) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if FrameSize(layout, enc) == 0 || sampleRate <= 0 {
		return -1, ErrBadValue
	}
	return f.MinBuffer, nil
}

func (f *FakeContext) NewSource(p SourceParams) (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &FakeSource{
		pcm:       f.pcm,
		realtime:  f.realtime,
		params:    p,
		startErr:  f.StartErr,
		readErr:   f.ReadErr,
		failAfter: f.FailAfter,
		audioDone: make(chan struct{}),
	}
	if !f.NotReady {
		s.state = StateInitialized
	}
	f.sources = append(f.sources, s)
	return s, nil
}

// Sources returns every source created so far, oldest first.
func (f *FakeContext) Sources() []*FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeSource(nil), f.sources...)
}

type FakeSource struct {
	pcm       []byte
	realtime  bool
	params    SourceParams
	startErr  error
	readErr   error
	failAfter int
	audioDone chan struct{}

	mu        sync.Mutex
	state     State
	started   bool
	pos       int
	reads     int
	stops     int
	releases  int
	audioOnce sync.Once
}

// AudioDone is closed once the whole PCM buffer has been read; reads after
// that return silence.
func (s *FakeSource) AudioDone() <-chan struct{} { return s.audioDone }

func (s *FakeSource) Params() SourceParams { return s.params }

func (s *FakeSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FakeSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitialized {
		return ErrIllegalState
	}
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *FakeSource) Read(buf []byte) (int, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return 0, ErrInvalidOperation
	}
	if s.readErr != nil && s.reads >= s.failAfter {
		s.mu.Unlock()
		return 0, s.readErr
	}
	s.reads++
	n := len(buf)
	if s.pos < len(s.pcm) {
		n = copy(buf, s.pcm[s.pos:])
		s.pos += n
	} else {
		clear(buf)
	}
	finished := s.pos >= len(s.pcm)
	s.mu.Unlock()

	if finished {
		s.audioOnce.Do(func() { close(s.audioDone) })
	}
	if s.realtime {
		if frame := FrameSize(s.params.Layout, s.params.Encoding); frame > 0 && s.params.SampleRate > 0 {
			time.Sleep(time.Duration(n/frame) * time.Second / time.Duration(s.params.SampleRate))
		}
	}
	return n, nil
}

func (s *FakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.stops++
	return nil
}

func (s *FakeSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.state = StateUninitialized
	s.releases++
}

// Counts reports how many successful reads, stops and releases the source saw.
func (s *FakeSource) Counts() (reads, stops, releases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.stops, s.releases
}
