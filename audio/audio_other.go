//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) MinBufferSize(sampleRate int, layout Layout, enc Encoding) (int, error) {
	return minBufferSize(sampleRate, layout, enc)
}

func (m *malgoContext) NewSource(sp SourceParams) (Source, error) {
	if _, err := minBufferSize(sp.SampleRate, sp.Layout, sp.Encoding); err != nil {
		return nil, err
	}

	var deviceConfig malgo.DeviceConfig
	switch sp.Source {
	case SourceDefault, SourceMic:
		deviceConfig = malgo.DefaultDeviceConfig(malgo.Capture)
	case SourceLoopback:
		deviceConfig = malgo.DefaultDeviceConfig(malgo.Loopback)
	default:
		return nil, fmt.Errorf("malgo source %d: %w", sp.Source, ErrBadValue)
	}
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(sp.Layout.Channels())
	deviceConfig.SampleRate = uint32(sp.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(sp.BufferSize / FrameSize(sp.Layout, sp.Encoding))

	if sp.Device != nil && sp.Source != SourceLoopback {
		idBytes, err := hex.DecodeString(sp.Device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	bytesPerSecond := sp.SampleRate * FrameSize(sp.Layout, sp.Encoding)
	s := &malgoSource{pipe: newPipe(pipeLimit(bytesPerSecond, sp.BufferSize))}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			s.pipe.write(input)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo init device: %w", err)
	}
	s.device = dev
	return s, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoSource struct {
	mu       sync.Mutex
	device   *malgo.Device
	pipe     *pipe
	started  bool
	released bool
}

func (s *malgoSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.device == nil {
		return StateUninitialized
	}
	return StateInitialized
}

func (s *malgoSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.device == nil {
		return ErrIllegalState
	}
	if s.started {
		return nil
	}
	s.pipe.reset()
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	s.started = true
	return nil
}

func (s *malgoSource) Read(buf []byte) (int, error) {
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

func (s *malgoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	s.pipe.close()
	return s.device.Stop()
}

func (s *malgoSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if s.started {
		s.device.Stop()
		s.started = false
	}
	s.pipe.close()
	s.device.Uninit()
	s.released = true
}
