package wav

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/riff"
)

var (
	// ErrInvalidSignature is returned when the RIFF/WAVE header is missing.
	ErrInvalidSignature = errors.New("missing RIFF/WAVE signature")
	// ErrShortFmtChunk is returned for a fmt chunk below the 16 byte minimum
	// or one that extends past the end of the buffer.
	ErrShortFmtChunk = errors.New("fmt chunk is malformed or truncated")
	// ErrNotPCM is returned for compressed or non-PCM format tags.
	ErrNotPCM = errors.New("unsupported audio format, expected uncompressed PCM")
	// ErrUnsupportedBitDepth is returned for bit depths other than 8 or 16.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrInvalidFormat is returned when fmt declares a non-positive channel
	// count or sample rate.
	ErrInvalidFormat = errors.New("fmt chunk declares invalid channel count or sample rate")
	// ErrDataBeforeFmt is returned when a data chunk precedes the fmt chunk.
	ErrDataBeforeFmt = errors.New("data chunk appears before fmt chunk")
	// ErrTruncatedData is returned when the data chunk payload extends past
	// the end of the buffer.
	ErrTruncatedData = errors.New("data chunk extends past end of buffer")
	// ErrChunksNotFound is returned when scanning ends without locating both
	// a fmt and a data chunk.
	ErrChunksNotFound = errors.New("fmt or data chunk not found")
	// ErrMisalignedData is returned when the data payload does not divide
	// evenly into whole frames.
	ErrMisalignedData = errors.New("data size does not align with sample layout")
)

// formatInfo holds the fields read from a fmt chunk.
type formatInfo struct {
	numChannels   int
	sampleRate    int
	bitsPerSample int
}

// scan walks the RIFF chunk list of a complete WAV buffer and returns the
// parsed format plus the raw data chunk payload. Chunks other than fmt and
// data are skipped; scanning stops at the data chunk, or safely when fewer
// than 8 bytes remain for a chunk header. Per RIFF convention an odd-sized
// payload is followed by one padding byte which is skipped to keep 2-byte
// alignment.
func scan(data []byte) (formatInfo, []byte, error) {
	var info formatInfo

	if len(data) < 12 {
		return info, nil, ErrInvalidSignature
	}
	if chunkID(data[0:4]) != riff.RiffID || chunkID(data[8:12]) != riff.WavFormatID {
		return info, nil, ErrInvalidSignature
	}

	fmtSeen := false
	offset := 12
	for offset+8 <= len(data) {
		id := chunkID(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8

		switch id {
		case riff.FmtID:
			if size < 16 || offset+size > len(data) {
				return info, nil, ErrShortFmtChunk
			}

			body := data[offset : offset+size]
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != 1 {
				return info, nil, fmt.Errorf("%w: format tag %d", ErrNotPCM, audioFormat)
			}

			info.numChannels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			if info.numChannels < 1 || info.sampleRate < 1 {
				return info, nil, ErrInvalidFormat
			}

			bits := int(binary.LittleEndian.Uint16(body[14:16]))
			if bits != 8 && bits != 16 {
				return info, nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedBitDepth, bits)
			}
			info.bitsPerSample = bits
			fmtSeen = true

		case riff.DataFormatID:
			// A data chunk ahead of the format chunk is rejected rather
			// than buffered for later reconciliation.
			if !fmtSeen {
				return info, nil, ErrDataBeforeFmt
			}
			if offset+size > len(data) {
				return info, nil, ErrTruncatedData
			}

			return info, data[offset : offset+size], nil
		}

		offset += size
		if size%2 == 1 {
			offset++
		}
	}

	return info, nil, ErrChunksNotFound
}

// chunkID converts a 4-byte tag slice into a comparable RIFF chunk ID.
func chunkID(b []byte) [4]byte {
	var id [4]byte
	copy(id[:], b)
	return id
}
