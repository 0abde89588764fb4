package audio

import (
	"errors"
	"strings"
)

const WAVHeaderSize = 44

var (
	// ErrInvalidOperation is returned by Source.Read when the source is not
	// recording (never started, stopped or released).
	ErrInvalidOperation = errors.New("audio: invalid operation")
	// ErrBadValue is returned for parameters the platform cannot honor.
	ErrBadValue = errors.New("audio: bad value")
	// ErrIllegalState is returned by Source.Start when the stream cannot begin.
	ErrIllegalState = errors.New("audio: illegal state")
)

type Layout int

const (
	LayoutMono Layout = iota + 1
	LayoutStereo
)

func (l Layout) Channels() int {
	switch l {
	case LayoutMono:
		return 1
	case LayoutStereo:
		return 2
	}
	return 0
}

func (l Layout) String() string {
	switch l {
	case LayoutMono:
		return "mono"
	case LayoutStereo:
		return "stereo"
	}
	return "unknown"
}

type Encoding int

const EncodingPCM16 Encoding = 16

func (e Encoding) BytesPerSample() int {
	if e == EncodingPCM16 {
		return 2
	}
	return 0
}

// SourceID selects what a Source records. Backends interpret it; values they
// do not know make NewSource fail.
type SourceID int

const (
	SourceDefault SourceID = iota
	SourceMic
	SourceLoopback
)

type State int

const (
	StateUninitialized State = iota
	StateInitialized
)

const (
	minSampleRate = 4000
	maxSampleRate = 192000
	// minimum read granularity the backends are willing to schedule
	minPeriodMs = 20
)

// FrameSize returns bytes per frame for the layout and encoding, or 0 if either
// is unsupported.
func FrameSize(layout Layout, enc Encoding) int {
	return layout.Channels() * enc.BytesPerSample()
}

// minBufferSize is shared by the real backends: the smallest read, in bytes,
// that covers one scheduling period.
func minBufferSize(sampleRate int, layout Layout, enc Encoding) (int, error) {
	frame := FrameSize(layout, enc)
	if frame == 0 || sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return -1, ErrBadValue
	}
	return sampleRate * minPeriodMs / 1000 * frame, nil
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether capture goes over a
// bluetooth headset profile (narrowband, usually 8 or 16 kHz).
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type SourceParams struct {
	Source     SourceID
	SampleRate int
	Layout     Layout
	Encoding   Encoding
	BufferSize int         // bytes per Read
	Device     *DeviceInfo // nil selects the system default
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	MinBufferSize(sampleRate int, layout Layout, enc Encoding) (int, error)
	NewSource(p SourceParams) (Source, error)
	Close()
}

// Source is a pull-style capture handle. Read blocks until len(buf) bytes
// have been captured.
type Source interface {
	State() State
	Start() error
	Read(buf []byte) (int, error)
	Stop() error
	Release()
}
