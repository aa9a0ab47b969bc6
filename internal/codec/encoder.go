package codec

// Encoder is the narrow contract over the external MP3 bitstream encoder.
// Samples are canonical signed 16-bit values; right is nil for mono input.
// Both methods may legitimately return zero bytes for a given call.
type Encoder interface {
	EncodeBlock(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// Factory creates one encoder configured for a single conversion.
type Factory func(channels, sampleRate, bitrateKbps int) (Encoder, error)

// DefaultBitrateKbps is used when no valid bit rate is configured.
const DefaultBitrateKbps = 128

// recognizedBitrates are the common CBR rates offered to the user.
var recognizedBitrates = []int{64, 96, 128, 160, 192, 256, 320}

// ValidBitrate reports whether kbps is one of the recognized rates.
func ValidBitrate(kbps int) bool {
	for _, rate := range recognizedBitrates {
		if rate == kbps {
			return true
		}
	}
	return false
}

// NormalizeBitrate maps unrecognized rates to the default.
func NormalizeBitrate(kbps int) int {
	if ValidBitrate(kbps) {
		return kbps
	}
	return DefaultBitrateKbps
}

// Bitrates returns the recognized rates for UI selection.
func Bitrates() []int {
	out := make([]int, len(recognizedBitrates))
	copy(out, recognizedBitrates)
	return out
}
