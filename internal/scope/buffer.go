package scope

import (
	"errors"
	"fmt"

	"github.com/e7canasta/orion-scope/internal/source"
)

// FrameBuffer holds one frame downsampled to a small fixed resolution.
//
// The buffer is allocated once and overwritten in place on every Capture,
// so the steady-state path allocates nothing. It is exclusively owned by
// the Engine; consumers only ever see HistogramSnapshot values.
type FrameBuffer struct {
	width  int
	height int
	pix    []byte // RGB24, width*height*3
}

// NewFrameBuffer allocates a buffer at the given fixed resolution.
func NewFrameBuffer(width, height int) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scope: invalid buffer resolution %dx%d", width, height)
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*3),
	}, nil
}

// Width returns the fixed buffer width in pixels.
func (b *FrameBuffer) Width() int { return b.width }

// Height returns the fixed buffer height in pixels.
func (b *FrameBuffer) Height() int { return b.height }

// Pix exposes the raw RGB24 bytes for the histogram scan.
// Read-only by contract; only Capture writes to it.
func (b *FrameBuffer) Pix() []byte { return b.pix }

// Capture copies the source's current frame into the buffer,
// nearest-neighbor downsampled to the fixed resolution.
//
// Error taxonomy:
//   - source.ErrUnavailable: no decodable frame (not started, paused,
//     ended, feed lost). Expected and frequent.
//   - source.ErrReadFailed: the pixel read failed or the frame payload
//     is malformed. Unexpected.
//
// Both are recovered by the engine falling back to synthetic data for
// that tick only; each tick is an independent, cheap attempt.
func (b *FrameBuffer) Capture(src source.Source) error {
	if src == nil || !src.Ready() {
		return source.ErrUnavailable
	}

	frame, err := src.Frame()
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", source.ErrReadFailed, err)
	}
	if frame == nil || len(frame.Data) == 0 {
		return source.ErrUnavailable
	}
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Data) < frame.Width*frame.Height*3 {
		return fmt.Errorf("%w: malformed frame %dx%d with %d bytes",
			source.ErrReadFailed, frame.Width, frame.Height, len(frame.Data))
	}

	// Nearest-neighbor downsample into the owned buffer
	for y := 0; y < b.height; y++ {
		sy := y * frame.Height / b.height
		srcRow := sy * frame.Width
		dstRow := y * b.width
		for x := 0; x < b.width; x++ {
			sx := x * frame.Width / b.width
			si := (srcRow + sx) * 3
			di := (dstRow + x) * 3
			b.pix[di] = frame.Data[si]
			b.pix[di+1] = frame.Data[si+1]
			b.pix[di+2] = frame.Data[si+2]
		}
	}

	return nil
}
