package beep

import (
	"encoding/binary"
	"testing"
)

func TestSamplesLength(t *testing.T) {
	tests := []struct {
		cue  Cue
		want int
	}{
		{CueStart, int(sampleRate*0.03) * 2},
		{CueEnd, int(sampleRate*0.05) * 2},
		{CueError, int(sampleRate*0.08)*2*2 + int(sampleRate*0.05)*2},
	}
	for _, tt := range tests {
		if got := len(samples(tt.cue)); got != tt.want {
			t.Errorf("cue %d: %d bytes, want %d", tt.cue, got, tt.want)
		}
	}
	if samples(Cue(99)) != nil {
		t.Error("unknown cue rendered samples")
	}
}

func TestErrorCueHasSilentGap(t *testing.T) {
	pcm := samples(CueError)
	tick := int(sampleRate*0.08) * 2
	gap := pcm[tick : tick+int(sampleRate*0.05)*2]
	for i, b := range gap {
		if b != 0 {
			t.Fatalf("gap byte %d = %d", i, b)
		}
	}
}

func TestTickDecays(t *testing.T) {
	pcm := samples(CueEnd)
	peak := func(b []byte) int {
		m := 0
		for i := 0; i+1 < len(b); i += 2 {
			v := int(int16(binary.LittleEndian.Uint16(b[i:])))
			if v < 0 {
				v = -v
			}
			m = max(m, v)
		}
		return m
	}
	quarter := len(pcm) / 4 &^ 1
	if head, tail := peak(pcm[:quarter]), peak(pcm[len(pcm)-quarter:]); tail >= head {
		t.Errorf("tail peak %d not below head peak %d", tail, head)
	}
}

func TestDisabledByDefault(t *testing.T) {
	if Enabled() {
		t.Fatal("cues enabled without Enable")
	}
	Enable()
	if !Enabled() {
		t.Error("Enable had no effect")
	}
	Disable()
	if Enabled() {
		t.Error("Disable had no effect")
	}
}
