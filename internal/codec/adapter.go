package codec

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/go-audio/audio"
)

const (
	// BlockSize is the encoder's documented recommended frame size in
	// samples per channel.
	BlockSize = 1152

	// yieldInterval is how many blocks are encoded between cooperative
	// scheduler yields, so a long encode cannot starve other work.
	yieldInterval = 100
)

// MIMEType tags every successful conversion result.
const MIMEType = "audio/mpeg"

// Convert drives the encoder block-by-block over a canonical buffer and
// concatenates the emitted chunks plus the flush tail into one MP3 blob.
// Stereo blocks are de-interleaved with channel 0 first; inputs with more
// than two channels are rejected by the encoder factory before this runs.
// Progress is reported after each block as a 0-100 percentage of frames.
// Any encoder failure aborts with no partial output.
func Convert(ctx context.Context, buf *audio.IntBuffer, enc Encoder, onProgress func(percent int)) ([]byte, error) {
	channels := buf.Format.NumChannels
	totalFrames := len(buf.Data) / channels

	var out bytes.Buffer
	left := make([]int16, BlockSize)
	var right []int16
	if channels > 1 {
		right = make([]int16, BlockSize)
	}

	for frame, block := 0, 0; frame < totalFrames; block++ {
		n := BlockSize
		if rem := totalFrames - frame; rem < n {
			n = rem
		}

		var chunk []byte
		var err error
		if channels == 1 {
			for i := 0; i < n; i++ {
				left[i] = int16(buf.Data[frame+i])
			}
			chunk, err = enc.EncodeBlock(left[:n], nil)
		} else {
			for i := 0; i < n; i++ {
				base := (frame + i) * channels
				left[i] = int16(buf.Data[base])
				right[i] = int16(buf.Data[base+1])
			}
			chunk, err = enc.EncodeBlock(left[:n], right[:n])
		}
		if err != nil {
			return nil, fmt.Errorf("encode block %d: %w", block, err)
		}
		if len(chunk) > 0 {
			out.Write(chunk)
		}

		frame += n
		if onProgress != nil {
			onProgress(int(math.Round(float64(frame) / float64(totalFrames) * 100)))
		}

		if (block+1)%yieldInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			runtime.Gosched()
		}
	}

	tail, err := enc.Flush()
	if err != nil {
		return nil, fmt.Errorf("flush encoder: %w", err)
	}
	if len(tail) > 0 {
		out.Write(tail)
	}

	return out.Bytes(), nil
}
