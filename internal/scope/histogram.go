package scope

import (
	"github.com/e7canasta/orion-scope/internal/types"
)

// Rec.709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// RawHistogram holds non-normalized per-frame counts.
//
// Invariants after a Compute over a non-empty buffer:
//   - sum(RCounts) == sum(GCounts) == sum(BCounts) == Pixels
//   - MaxCount is the maximum single-bin count across all three channels
//     and is never zero
//   - sum(WavePixels) == Pixels
type RawHistogram struct {
	RCounts [types.Bins]uint32
	GCounts [types.Bins]uint32
	BCounts [types.Bins]uint32

	// WaveSums accumulates luma per horizontal column band;
	// WavePixels counts the pixels that landed in each band.
	WaveSums   []float64
	WavePixels []uint32

	// MaxCount is the largest single-bin count seen across R, G and B.
	MaxCount uint32

	// Pixels is the total number of pixels scanned.
	Pixels int
}

// Computer produces RawHistograms from a FrameBuffer in a single linear
// scan: channel bins and the luma waveform are accumulated together so
// the frame is only traversed once, which matters at interactive rates.
//
// The RawHistogram is owned by the Computer and reused across ticks
// (zeroed at the start of each Compute); callers must consume it before
// the next tick. Not safe for concurrent use; the engine's single
// active tick is the only caller.
type Computer struct {
	cols int
	raw  RawHistogram
}

// NewComputer creates a Computer producing waveColumns luma columns.
func NewComputer(waveColumns int) *Computer {
	c := &Computer{cols: waveColumns}
	c.raw.WaveSums = make([]float64, waveColumns)
	c.raw.WavePixels = make([]uint32, waveColumns)
	return c
}

// WaveColumns returns the configured number of luma columns.
func (c *Computer) WaveColumns() int { return c.cols }

// Compute scans the buffer once and returns the accumulated counts.
func (c *Computer) Compute(buf *FrameBuffer) *RawHistogram {
	c.reset()

	width := buf.Width()
	height := buf.Height()
	pix := buf.Pix()
	raw := &c.raw

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			i := (row + x) * 3
			r := pix[i]
			g := pix[i+1]
			b := pix[i+2]

			raw.RCounts[r]++
			if raw.RCounts[r] > raw.MaxCount {
				raw.MaxCount = raw.RCounts[r]
			}
			raw.GCounts[g]++
			if raw.GCounts[g] > raw.MaxCount {
				raw.MaxCount = raw.GCounts[g]
			}
			raw.BCounts[b]++
			if raw.BCounts[b] > raw.MaxCount {
				raw.MaxCount = raw.BCounts[b]
			}

			// Equal-width column band by horizontal position
			col := x * c.cols / width
			raw.WaveSums[col] += lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
			raw.WavePixels[col]++
		}
	}

	raw.Pixels = width * height
	return raw
}

func (c *Computer) reset() {
	c.raw.RCounts = [types.Bins]uint32{}
	c.raw.GCounts = [types.Bins]uint32{}
	c.raw.BCounts = [types.Bins]uint32{}
	for i := range c.raw.WaveSums {
		c.raw.WaveSums[i] = 0
		c.raw.WavePixels[i] = 0
	}
	c.raw.MaxCount = 0
	c.raw.Pixels = 0
}
