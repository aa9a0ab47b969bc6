package wav

import (
	"encoding/binary"
	"fmt"
)

// normalize converts raw PCM bytes into canonical signed 16-bit samples.
// 16-bit sources are reinterpreted as little-endian signed values. 8-bit
// sources are unsigned with silence at 128; they are recentered to zero
// and scaled up by 8 bit positions so relative amplitude is preserved.
func normalize(data []byte, bitDepth int) ([]int, error) {
	switch bitDepth {
	case 16:
		if len(data)%2 != 0 {
			return nil, ErrMisalignedData
		}

		samples := make([]int, len(data)/2)
		for i := range samples {
			samples[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
		}
		return samples, nil

	case 8:
		samples := make([]int, len(data))
		for i, b := range data {
			samples[i] = (int(b) - 128) * 256
		}
		return samples, nil

	default:
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedBitDepth, bitDepth)
	}
}
