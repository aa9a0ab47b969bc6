package codec

import (
	"context"
	"errors"
	"testing"

	"github.com/go-audio/audio"
)

// fakeEncoder records block calls and emits deterministic chunks.
type fakeEncoder struct {
	blocks    [][2][]int16
	perBlock  []byte
	flushTail []byte
	failAt    int // 1-based block index that fails, 0 for never
	failFlush bool
}

func (f *fakeEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	f.blocks = append(f.blocks, [2][]int16{
		append([]int16(nil), left...),
		append([]int16(nil), right...),
	})
	if f.failAt > 0 && len(f.blocks) == f.failAt {
		return nil, errors.New("encoder exploded")
	}
	return f.perBlock, nil
}

func (f *fakeEncoder) Flush() ([]byte, error) {
	if f.failFlush {
		return nil, errors.New("flush exploded")
	}
	return f.flushTail, nil
}

// monoBuffer builds a mono canonical buffer with n sequential samples.
func monoBuffer(n int) *audio.IntBuffer {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}
}

// TestConvertMonoBlockAccounting checks chunk concatenation and progress
// for an input of exactly two encoder blocks.
func TestConvertMonoBlockAccounting(t *testing.T) {
	enc := &fakeEncoder{perBlock: []byte("chunk"), flushTail: []byte("tail")}
	var progress []int

	out, err := Convert(context.Background(), monoBuffer(2*BlockSize), enc, func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if len(enc.blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(enc.blocks))
	}
	if len(enc.blocks[0][0]) != BlockSize || enc.blocks[0][1] != nil {
		t.Fatalf("unexpected mono block shape: %d samples, right=%v", len(enc.blocks[0][0]), enc.blocks[0][1])
	}

	want := 2*len("chunk") + len("tail")
	if len(out) != want {
		t.Fatalf("output = %d bytes, want %d", len(out), want)
	}
	if string(out) != "chunkchunktail" {
		t.Fatalf("output = %q", out)
	}

	if len(progress) != 2 || progress[0] != 50 || progress[1] != 100 {
		t.Fatalf("progress = %v, want [50 100]", progress)
	}
}

// TestConvertStereoDeinterleaves checks channel split and order.
func TestConvertStereoDeinterleaves(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           []int{10, 20, 11, 21, 12, 22},
		SourceBitDepth: 16,
	}
	enc := &fakeEncoder{}

	if _, err := Convert(context.Background(), buf, enc, nil); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if len(enc.blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(enc.blocks))
	}
	left, right := enc.blocks[0][0], enc.blocks[0][1]
	wantLeft := []int16{10, 11, 12}
	wantRight := []int16{20, 21, 22}
	for i := range wantLeft {
		if left[i] != wantLeft[i] || right[i] != wantRight[i] {
			t.Fatalf("left=%v right=%v", left, right)
		}
	}
}

// TestConvertShortFinalBlock checks a trailing partial block is passed whole.
func TestConvertShortFinalBlock(t *testing.T) {
	enc := &fakeEncoder{}
	if _, err := Convert(context.Background(), monoBuffer(BlockSize+7), enc, nil); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if len(enc.blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(enc.blocks))
	}
	if len(enc.blocks[1][0]) != 7 {
		t.Fatalf("final block = %d samples, want 7", len(enc.blocks[1][0]))
	}
}

// TestConvertEncoderFailureAborts checks no partial output escapes.
func TestConvertEncoderFailureAborts(t *testing.T) {
	enc := &fakeEncoder{perBlock: []byte("chunk"), failAt: 2}
	out, err := Convert(context.Background(), monoBuffer(3*BlockSize), enc, nil)
	if err == nil {
		t.Fatal("expected encode error")
	}
	if out != nil {
		t.Fatalf("expected nil output, got %d bytes", len(out))
	}

	enc = &fakeEncoder{failFlush: true}
	if _, err := Convert(context.Background(), monoBuffer(BlockSize), enc, nil); err == nil {
		t.Fatal("expected flush error")
	}
}

// TestConvertCancellationAtYieldPoint checks the periodic yield honors ctx.
func TestConvertCancellationAtYieldPoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := &fakeEncoder{}
	_, err := Convert(ctx, monoBuffer((yieldInterval+1)*BlockSize), enc, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(enc.blocks) != yieldInterval {
		t.Fatalf("blocks before cancel = %d, want %d", len(enc.blocks), yieldInterval)
	}
}

// TestBitrates checks the recognized rate set and normalization.
func TestBitrates(t *testing.T) {
	for _, rate := range []int{64, 96, 128, 160, 192, 256, 320} {
		if !ValidBitrate(rate) {
			t.Fatalf("rate %d should be recognized", rate)
		}
		if got := NormalizeBitrate(rate); got != rate {
			t.Fatalf("NormalizeBitrate(%d) = %d", rate, got)
		}
	}
	for _, rate := range []int{0, -1, 100, 129} {
		if ValidBitrate(rate) {
			t.Fatalf("rate %d should not be recognized", rate)
		}
		if got := NormalizeBitrate(rate); got != DefaultBitrateKbps {
			t.Fatalf("NormalizeBitrate(%d) = %d, want %d", rate, got, DefaultBitrateKbps)
		}
	}
}

// TestConvertEmptyChunksSkipped checks zero-byte encoder returns are legal.
func TestConvertEmptyChunksSkipped(t *testing.T) {
	enc := &fakeEncoder{flushTail: []byte("only-tail")}
	out, err := Convert(context.Background(), monoBuffer(2*BlockSize), enc, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if string(out) != "only-tail" {
		t.Fatalf("output = %q", out)
	}
}
