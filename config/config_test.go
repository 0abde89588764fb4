package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerec/audio"
	"voicerec/record"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicerec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
sample_rate: 48000
channels: stereo
buffer_size: 4096
device: USB Mic
record_dir: takes
prefix: kw
close_delay: 750ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, "stereo", cfg.Channels)
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, "USB Mic", cfg.Device)
	assert.Equal(t, "takes", cfg.RecordDir)
	assert.Equal(t, "kw", cfg.Prefix)
	assert.Equal(t, 750*time.Millisecond, cfg.CloseDelay)
	assert.Equal(t, 16, cfg.BitDepth, "unset keys keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sample_rate: 48000\n")
	t.Setenv("VOICEREC_SAMPLE_RATE", "8000")
	t.Setenv("VOICEREC_PREFIX", "env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.SampleRate)
	assert.Equal(t, "env", cfg.Prefix)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, body := range []string{
		"channels: quad\n",
		"bit_depth: 24\n",
		"sample_rate: 0\n",
		"buffer_size: -1\n",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Device = "Headset"
	cfg.CloseDelay = time.Second
	path := filepath.Join(t.TempDir(), "nested", "voicerec.yaml")

	got, err := SaveTo(cfg, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

type keyRecorder map[record.Key]int

func (k keyRecorder) Configure(key record.Key, value int) { k[key] = value }

func TestApply(t *testing.T) {
	cfg := Default()
	cfg.Channels = "stereo"
	cfg.SampleRate = 44100
	cfg.BufferSize = 2048

	got := keyRecorder{}
	require.NoError(t, cfg.Apply(got))
	assert.Equal(t, keyRecorder{
		record.KeyChannel:     int(audio.LayoutStereo),
		record.KeyAudioSource: int(audio.SourceMic),
		record.KeyBufferSize:  2048,
		record.KeySampleRate:  44100,
		record.KeyEncoding:    int(audio.EncodingPCM16),
	}, got)
}

func TestApplyToRecorder(t *testing.T) {
	rec := record.New(audio.NewFakePCMContext(nil, false), nil)
	cfg := Default()
	cfg.SampleRate = 8000
	require.NoError(t, cfg.Apply(rec))
	assert.Equal(t, 8000, rec.Param(record.KeySampleRate))
	assert.Equal(t, int(audio.LayoutMono), rec.Param(record.KeyChannel))
}
