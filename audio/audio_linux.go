//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sources {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) MinBufferSize(sampleRate int, layout Layout, enc Encoding) (int, error) {
	return minBufferSize(sampleRate, layout, enc)
}

func (p *pulseContext) NewSource(sp SourceParams) (Source, error) {
	if _, err := minBufferSize(sp.SampleRate, sp.Layout, sp.Encoding); err != nil {
		return nil, err
	}
	if sp.Source == SourceLoopback {
		return nil, fmt.Errorf("pulse: loopback source: %w", ErrBadValue)
	}

	bytesPerSecond := sp.SampleRate * FrameSize(sp.Layout, sp.Encoding)
	s := &pulseSource{
		pipe: newPipe(pipeLimit(bytesPerSecond, sp.BufferSize)),
	}

	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		if len(buf) == 0 {
			return 0, nil
		}
		data := make([]byte, len(buf)*2)
		for i, v := range buf {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
		}
		s.pipe.write(data)
		return len(buf), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(sp.SampleRate),
		pulse.RecordLatency(float64(sp.BufferSize) / float64(bytesPerSecond)),
	}
	if sp.Layout == LayoutStereo {
		opts = append(opts, pulse.RecordStereo)
	} else {
		opts = append(opts, pulse.RecordMono)
	}
	if sp.Device != nil {
		source, err := p.client.SourceByID(sp.Device.ID)
		if err == nil && source != nil {
			opts = append(opts, pulse.RecordSource(source))
		}
	}

	stream, err := p.client.NewRecord(writer, opts...)
	if err != nil {
		return nil, fmt.Errorf("pulse record: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseSource struct {
	mu       sync.Mutex
	stream   *pulse.RecordStream
	pipe     *pipe
	started  bool
	released bool
}

func (s *pulseSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.stream == nil {
		return StateUninitialized
	}
	return StateInitialized
}

func (s *pulseSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.stream == nil {
		return ErrIllegalState
	}
	if s.started {
		return nil
	}
	s.pipe.reset()
	s.stream.Start()
	s.started = true
	return nil
}

func (s *pulseSource) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrBadValue
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return 0, ErrInvalidOperation
	}
	return s.pipe.read(buf)
}

func (s *pulseSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.stream.Stop()
	s.started = false
	s.pipe.close()
	return nil
}

func (s *pulseSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if s.started {
		s.stream.Stop()
		s.started = false
	}
	s.pipe.close()
	s.stream.Close()
	s.released = true
}
