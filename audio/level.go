package audio

import (
	"encoding/binary"
	"math"
)

// Level is the RMS of little-endian PCM16 samples, normalized to [0, 1].
func Level(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(pcm)/2))
}
