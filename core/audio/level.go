package audio

import (
	"encoding/binary"
	"math"
)

// Level returns the RMS energy of a little-endian linear16 chunk. Other
// encodings report 0, callers treat that as silence.
func Level(chunk []byte, encoding EncodingInfo) float64 {
	if encoding.Format != EncodingLinear16 || len(chunk) < 2 {
		return 0
	}

	samples := len(chunk) / 2
	var sum float64
	for i := range samples {
		sample := float64(int16(binary.LittleEndian.Uint16(chunk[2*i:])))
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(samples))
}
