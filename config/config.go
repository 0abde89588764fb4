package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voicerec/audio"
	"voicerec/record"
)

const fileName = "voicerec"

type Config struct {
	SampleRate  int           `mapstructure:"sample_rate"`
	Channels    string        `mapstructure:"channels"`
	AudioSource int           `mapstructure:"audio_source"`
	BufferSize  int           `mapstructure:"buffer_size"`
	BitDepth    int           `mapstructure:"bit_depth"`
	Device      string        `mapstructure:"device"`
	Root        string        `mapstructure:"root"`
	RecordDir   string        `mapstructure:"record_dir"`
	Prefix      string        `mapstructure:"prefix"`
	CloseDelay  time.Duration `mapstructure:"close_delay"`
	LogPath     string        `mapstructure:"log_path"`
}

func Default() *Config {
	return &Config{
		SampleRate:  record.DefaultSampleRate,
		Channels:    "mono",
		AudioSource: int(audio.SourceMic),
		BufferSize:  record.DefaultBufferSize,
		BitDepth:    int(audio.EncodingPCM16),
		RecordDir:   "voicerec/record",
		Prefix:      "rec",
		CloseDelay:  500 * time.Millisecond,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("channels", d.Channels)
	v.SetDefault("audio_source", d.AudioSource)
	v.SetDefault("buffer_size", d.BufferSize)
	v.SetDefault("bit_depth", d.BitDepth)
	v.SetDefault("device", d.Device)
	v.SetDefault("root", d.Root)
	v.SetDefault("record_dir", d.RecordDir)
	v.SetDefault("prefix", d.Prefix)
	v.SetDefault("close_delay", d.CloseDelay)
	v.SetDefault("log_path", d.LogPath)

	v.SetEnvPrefix("VOICEREC")
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile, or voicerec.yaml from the config directory or the
// working directory. A missing default file is not an error; VOICEREC_*
// environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	v := newViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes cfg as yaml to cfgFile, or to the default location.
func SaveTo(cfg *Config, cfgFile string) (string, error) {
	v := viper.New()
	v.Set("sample_rate", cfg.SampleRate)
	v.Set("channels", cfg.Channels)
	v.Set("audio_source", cfg.AudioSource)
	v.Set("buffer_size", cfg.BufferSize)
	v.Set("bit_depth", cfg.BitDepth)
	v.Set("device", cfg.Device)
	v.Set("root", cfg.Root)
	v.Set("record_dir", cfg.RecordDir)
	v.Set("prefix", cfg.Prefix)
	v.Set("close_delay", cfg.CloseDelay.String())
	v.Set("log_path", cfg.LogPath)

	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, fileName+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Dir is $XDG_CONFIG_HOME/voicerec, or the OS user config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "voicerec"), nil
}

func (c *Config) Layout() (audio.Layout, error) {
	switch strings.ToLower(c.Channels) {
	case "mono", "1":
		return audio.LayoutMono, nil
	case "stereo", "2":
		return audio.LayoutStereo, nil
	}
	return 0, fmt.Errorf("channels %q: want mono or stereo", c.Channels)
}

func (c *Config) Validate() error {
	if _, err := c.Layout(); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate %d: must be positive", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size %d: must be positive", c.BufferSize)
	}
	if audio.Encoding(c.BitDepth).BytesPerSample() == 0 {
		return fmt.Errorf("bit_depth %d: only 16 is supported", c.BitDepth)
	}
	if c.CloseDelay < 0 {
		return fmt.Errorf("close_delay %s: must not be negative", c.CloseDelay)
	}
	return nil
}

// Configurer is satisfied by *record.Recorder.
type Configurer interface {
	Configure(key record.Key, value int)
}

// Apply pushes the capture parameters to r key by key.
func (c *Config) Apply(r Configurer) error {
	layout, err := c.Layout()
	if err != nil {
		return err
	}
	r.Configure(record.KeyChannel, int(layout))
	r.Configure(record.KeyAudioSource, c.AudioSource)
	r.Configure(record.KeyBufferSize, c.BufferSize)
	r.Configure(record.KeySampleRate, c.SampleRate)
	r.Configure(record.KeyEncoding, c.BitDepth)
	return nil
}
