package wav

import (
	"github.com/go-audio/audio"
)

// Decode parses a complete WAV byte buffer into a canonical interleaved
// signed 16-bit buffer. Malformed input is a deterministic failure for
// that buffer; no partial record is ever returned.
func Decode(data []byte) (*audio.IntBuffer, error) {
	info, pcm, err := scan(data)
	if err != nil {
		return nil, err
	}

	samples, err := normalize(pcm, info.bitsPerSample)
	if err != nil {
		return nil, err
	}
	if len(samples)%info.numChannels != 0 {
		return nil, ErrMisalignedData
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: info.numChannels,
			SampleRate:  info.sampleRate,
		},
		Data:           samples,
		SourceBitDepth: info.bitsPerSample,
	}, nil
}
