package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/viert/go-lame"
)

// NewLameFactory returns a Factory backed by the LAME bitstream encoder.
func NewLameFactory() Factory {
	return func(channels, sampleRate, bitrateKbps int) (Encoder, error) {
		if channels < 1 || channels > 2 {
			return nil, fmt.Errorf("unsupported channel count: %d", channels)
		}
		if sampleRate < 1 {
			return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
		}
		if !ValidBitrate(bitrateKbps) {
			return nil, fmt.Errorf("unsupported bit rate: %d kbps", bitrateKbps)
		}

		e := &lameEncoder{channels: channels}
		e.enc = lame.NewEncoder(&e.out)
		if err := e.enc.SetNumChannels(channels); err != nil {
			return nil, fmt.Errorf("configure channels: %w", err)
		}
		if err := e.enc.SetInSamplerate(sampleRate); err != nil {
			return nil, fmt.Errorf("configure sample rate: %w", err)
		}
		if err := e.enc.SetBrate(bitrateKbps); err != nil {
			return nil, fmt.Errorf("configure bit rate: %w", err)
		}

		return e, nil
	}
}

// lameEncoder adapts the writer-shaped LAME binding to the block-oriented
// encoder contract: encoded bytes land in out and are drained after every
// call so each block's output is returned to the caller exactly once.
type lameEncoder struct {
	enc      *lame.Encoder
	out      bytes.Buffer
	channels int
	pcm      []byte
}

// EncodeBlock re-interleaves the per-channel samples into little-endian
// 16-bit PCM and feeds them through the encoder.
func (e *lameEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	frames := len(left)
	width := 2 * e.channels
	if cap(e.pcm) < frames*width {
		e.pcm = make([]byte, frames*width)
	}

	buf := e.pcm[:frames*width]
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[i*width:], uint16(left[i]))
		if e.channels == 2 {
			var s int16
			if i < len(right) {
				s = right[i]
			}
			binary.LittleEndian.PutUint16(buf[i*width+2:], uint16(s))
		}
	}

	if _, err := e.enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode block: %w", err)
	}
	return e.drain(), nil
}

// Flush finalizes the bitstream and returns any trailing bytes.
func (e *lameEncoder) Flush() ([]byte, error) {
	e.enc.Close()
	return e.drain(), nil
}

// drain returns and clears everything the encoder wrote so far.
func (e *lameEncoder) drain() []byte {
	if e.out.Len() == 0 {
		return nil
	}
	chunk := append([]byte(nil), e.out.Bytes()...)
	e.out.Reset()
	return chunk
}
