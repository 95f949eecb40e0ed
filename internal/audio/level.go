package audio

import (
	"encoding/binary"
	"math"
)

// RMS computes the root-mean-square energy of little-endian signed 16-bit
// PCM on a 0..1 scale. A trailing odd byte is ignored.
func RMS(pcm []byte) float32 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		f := float64(s) / 32768
		sum += f * f
	}
	return float32(math.Sqrt(sum / float64(n)))
}

// RMSInt16 computes RMS energy of raw int16 samples on a 0..1 scale.
func RMSInt16(samples []int16) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768
		sum += f * f
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}
