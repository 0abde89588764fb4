package main

import (
	"bytes"
	"strings"
	"testing"

	"voicerec/audio"
)

func TestDeviceLineText(t *testing.T) {
	tests := []struct {
		dev  *audio.DeviceInfo
		want string
	}{
		{nil, "mic: system default"},
		{&audio.DeviceInfo{Name: "USB Mic"}, "mic: USB Mic"},
		{&audio.DeviceInfo{Name: "AirPods Pro"}, "mic: AirPods Pro (BT!)"},
	}
	for _, tt := range tests {
		if got := deviceLineText(tt.dev); got != tt.want {
			t.Errorf("deviceLineText(%v) = %q, want %q", tt.dev, got, tt.want)
		}
	}
}

func TestRecordOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts recordOptions
		ok   bool
	}{
		{"default", recordOptions{}, true},
		{"script with fake", recordOptions{script: true, fake: "x.wav"}, true},
		{"script without fake", recordOptions{script: true}, false},
		{"script with tui", recordOptions{script: true, fake: "x.wav", tui: true}, false},
		{"ptt and hybrid", recordOptions{ptt: true, hybrid: true}, false},
		{"hybrid with tui", recordOptions{hybrid: true, tui: true}, true},
	}
	for _, tt := range tests {
		err := tt.opts.validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: validate() = %v", tt.name, err)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int]string{
		0:       "0 B",
		1023:    "1023 B",
		1536:    "1.5 KB",
		3 << 20: "3.0 MB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := newLineSink(&buf)
	s.DeviceLine("mic: fake")
	s.RecordingStart("rec")
	s.AudioLevel(0.5)
	s.RecordingStop()
	s.FileSaved("/tmp/x.pcm", 2048)
	s.Error("boom")

	want := []string{
		"mic: fake",
		"● recording (rec)",
		"○ stopped",
		"saved /tmp/x.pcm (2.0 KB)",
		"error: boom",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}
