//go:build !linux

package beep

import (
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"voicerec/log"
)

var (
	ctxOnce  sync.Once
	malgoCtx *malgo.AllocatedContext
	playMu   sync.Mutex
)

// play opens a playback device for one cue and tears it down once the
// callback has drained pcm.
func play(pcm []byte) {
	ctxOnce.Do(func() {
		c, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			log.Warnf("beep: malgo context: %v", err)
			return
		}
		malgoCtx = c
	})
	if malgoCtx == nil {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var pos int
	drained := make(chan struct{})
	var once sync.Once
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			n := copy(out, pcm[pos:])
			pos += n
			clear(out[n:])
			if pos >= len(pcm) {
				once.Do(func() { close(drained) })
			}
		},
	}
	device, err := malgo.InitDevice(malgoCtx.Context, config, callbacks)
	if err != nil {
		log.Warnf("beep: playback device: %v", err)
		return
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		log.Warnf("beep: playback start: %v", err)
		return
	}
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		log.Warn("beep: playback did not drain")
	}
	device.Stop()
}
