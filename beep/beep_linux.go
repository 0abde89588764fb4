//go:build linux

package beep

import (
	"encoding/binary"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"voicerec/log"
)

// pulse keeps the client for the life of the process; cues are too short to
// be worth a connection each.
var (
	clientOnce sync.Once
	client     *pulse.Client
	playMu     sync.Mutex
)

func play(pcm []byte) {
	clientOnce.Do(func() {
		c, err := pulse.NewClient()
		if err != nil {
			log.Warnf("beep: pulse client: %v", err)
			return
		}
		client = c
	})
	if client == nil {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(pcm) {
			return 0, pulse.EndOfData
		}
		n := 0
		for n < len(buf) && pos+1 < len(pcm) {
			buf[n] = int16(binary.LittleEndian.Uint16(pcm[pos:]))
			pos += 2
			n++
		}
		return n, nil
	})
	stream, err := client.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		log.Warnf("beep: playback: %v", err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
