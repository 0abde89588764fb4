package doctor

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerec/audio"
	"voicerec/config"
)

func tone(samples int) []byte {
	pcm := make([]byte, samples*2)
	for i := range samples {
		v := int16(8000)
		if i%2 == 1 {
			v = -8000
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return pcm
}

func TestCaptureOnceRoundTrip(t *testing.T) {
	actx := audio.NewFakePCMContext(tone(16000), true)
	cfg := config.Default()
	cfg.CloseDelay = 10 * time.Millisecond

	res, err := captureOnce(actx, cfg, nil, t.TempDir(), 200*time.Millisecond)
	require.NoError(t, err)
	assert.Positive(t, res.chunks)
	assert.Equal(t, res.bytes, res.saved)
	assert.InDelta(t, 8000.0/32768.0, res.peak, 1e-6)
}

func TestCaptureOnceCreateError(t *testing.T) {
	actx := audio.NewFakePCMContext(nil, false)
	actx.StartErr = audio.ErrIllegalState
	cfg := config.Default()
	cfg.CloseDelay = 10 * time.Millisecond

	_, err := captureOnce(actx, cfg, nil, t.TempDir(), time.Second)
	assert.ErrorIs(t, err, audio.ErrIllegalState)
}

func TestCheckStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	assert.True(t, checkStorage(cfg))
}
