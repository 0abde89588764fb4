package record

import "voicerec/audio"

// Key addresses one capture parameter in Configure/Param.
type Key int

const (
	KeyChannel Key = iota
	KeyAudioSource
	KeyBufferSize
	KeySampleRate
	KeyEncoding
)

func (k Key) String() string {
	switch k {
	case KeyChannel:
		return "channel"
	case KeyAudioSource:
		return "audio_source"
	case KeyBufferSize:
		return "buffer_size"
	case KeySampleRate:
		return "sample_rate"
	case KeyEncoding:
		return "encoding"
	}
	return "unknown"
}

// Keys lists every known key in declaration order.
var Keys = []Key{KeyChannel, KeyAudioSource, KeyBufferSize, KeySampleRate, KeyEncoding}

const (
	DefaultSampleRate = 16000
	DefaultBufferSize = 1536
)

type Config struct {
	Layout     audio.Layout
	Source     audio.SourceID
	SampleRate int
	Encoding   audio.Encoding
	// BufferSize is the requested read size in bytes; the platform minimum
	// wins when it is larger.
	BufferSize int
	Device     *audio.DeviceInfo
}

func DefaultConfig() Config {
	return Config{
		Layout:     audio.LayoutMono,
		Source:     audio.SourceMic,
		SampleRate: DefaultSampleRate,
		Encoding:   audio.EncodingPCM16,
		BufferSize: DefaultBufferSize,
	}
}

func (c *Config) set(key Key, value int) {
	switch key {
	case KeyChannel:
		c.Layout = audio.Layout(value)
	case KeyAudioSource:
		c.Source = audio.SourceID(value)
	case KeyBufferSize:
		c.BufferSize = value
	case KeySampleRate:
		c.SampleRate = value
	case KeyEncoding:
		c.Encoding = audio.Encoding(value)
	}
}

func (c Config) get(key Key) int {
	switch key {
	case KeyChannel:
		return int(c.Layout)
	case KeyAudioSource:
		return int(c.Source)
	case KeyBufferSize:
		return c.BufferSize
	case KeySampleRate:
		return c.SampleRate
	case KeyEncoding:
		return int(c.Encoding)
	}
	return -1
}

// effectiveBufferSize is the read size used for a session.
func effectiveBufferSize(requested, platformMin int) int {
	return max(requested, platformMin)
}
