package audio

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinBufferSize(t *testing.T) {
	n, err := minBufferSize(16000, LayoutMono, EncodingPCM16)
	require.NoError(t, err)
	assert.Equal(t, 640, n)

	n, err = minBufferSize(48000, LayoutStereo, EncodingPCM16)
	require.NoError(t, err)
	assert.Equal(t, 3840, n)

	for _, tc := range []struct {
		rate   int
		layout Layout
		enc    Encoding
	}{
		{0, LayoutMono, EncodingPCM16},
		{1000000, LayoutMono, EncodingPCM16},
		{16000, Layout(7), EncodingPCM16},
		{16000, LayoutMono, Encoding(8)},
	} {
		n, err := minBufferSize(tc.rate, tc.layout, tc.enc)
		assert.ErrorIs(t, err, ErrBadValue)
		assert.Negative(t, n)
	}
}

func TestIsBluetooth(t *testing.T) {
	assert.True(t, IsBluetooth("AirPods Pro"))
	assert.True(t, IsBluetooth("WH-1000XM4 (BT)"))
	assert.False(t, IsBluetooth("Built-in Microphone"))
}

func TestFakeSourceReplaysPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	ctx := NewFakePCMContext(pcm, false)
	src, err := ctx.NewSource(SourceParams{SampleRate: 16000, Layout: LayoutMono, Encoding: EncodingPCM16, BufferSize: 4})
	require.NoError(t, err)
	require.Equal(t, StateInitialized, src.State())

	buf := make([]byte, 4)
	_, err = src.Read(buf)
	assert.ErrorIs(t, err, ErrInvalidOperation, "read before start")

	require.NoError(t, src.Start())
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf[:n])

	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, buf[:n])

	fs := src.(*FakeSource)
	select {
	case <-fs.AudioDone():
	default:
		t.Fatal("AudioDone not closed after the buffer was consumed")
	}

	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[:n], "silence after the recording ends")

	require.NoError(t, src.Stop())
	src.Release()
	assert.Equal(t, StateUninitialized, src.State())
	reads, stops, releases := fs.Counts()
	assert.Equal(t, 3, reads)
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, releases)
}

func TestFakeContextFailures(t *testing.T) {
	ctx := NewFakePCMContext(nil, false)
	ctx.NotReady = true
	src, err := ctx.NewSource(SourceParams{})
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, src.State())
	assert.ErrorIs(t, src.Start(), ErrIllegalState)

	ctx = NewFakePCMContext(nil, false)
	ctx.StartErr = ErrIllegalState
	src, err = ctx.NewSource(SourceParams{})
	require.NoError(t, err)
	assert.ErrorIs(t, src.Start(), ErrIllegalState)

	ctx = NewFakePCMContext(nil, false)
	ctx.ReadErr = ErrBadValue
	ctx.FailAfter = 1
	src, err = ctx.NewSource(SourceParams{})
	require.NoError(t, err)
	require.NoError(t, src.Start())
	_, err = src.Read(make([]byte, 2))
	require.NoError(t, err)
	_, err = src.Read(make([]byte, 2))
	assert.True(t, errors.Is(err, ErrBadValue))

	_, err = ctx.MinBufferSize(16000, Layout(0), EncodingPCM16)
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestNewFakeContextStripsWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	data := make([]byte, WAVHeaderSize+4)
	copy(data[0:4], "RIFF")
	binary.LittleEndian.PutUint16(data[WAVHeaderSize:], 0x1234)
	binary.LittleEndian.PutUint16(data[WAVHeaderSize+2:], 0x5678)
	require.NoError(t, os.WriteFile(path, data, 0644))

	ctx, err := NewFakeContext(path, false)
	require.NoError(t, err)
	src, err := ctx.NewSource(SourceParams{})
	require.NoError(t, err)
	require.NoError(t, src.Start())

	buf := make([]byte, 4)
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, uint16(0x1234), binary.LittleEndian.Uint16(buf))
	assert.Len(t, ctx.Sources(), 1)
}

func TestLevel(t *testing.T) {
	assert.Zero(t, Level(nil))
	assert.Zero(t, Level(make([]byte, 64)))

	full := make([]byte, 8)
	for i := 0; i < len(full); i += 2 {
		binary.LittleEndian.PutUint16(full[i:], uint16(0x8000)) // -32768
	}
	assert.InDelta(t, 1.0, Level(full), 1e-9)

	half := make([]byte, 4)
	binary.LittleEndian.PutUint16(half, uint16(16384))
	binary.LittleEndian.PutUint16(half[2:], uint16(0xC000)) // -16384
	assert.InDelta(t, 0.5, Level(half), 1e-9)
}
