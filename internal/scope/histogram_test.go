package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-scope/internal/types"
)

// fillBuffer captures a frame into a fresh buffer of the same size.
func fillBuffer(t *testing.T, frame *types.Frame) *FrameBuffer {
	t.Helper()
	buf, err := NewFrameBuffer(frame.Width, frame.Height)
	require.NoError(t, err)

	src := &stubSource{}
	src.set(true, frame, nil)
	require.NoError(t, buf.Capture(src))
	return buf
}

func sumCounts(counts [types.Bins]uint32) int {
	total := 0
	for _, c := range counts {
		total += int(c)
	}
	return total
}

func TestComputeSolidRedFrame(t *testing.T) {
	// 2x2 solid red: every count lands in one bin per channel
	buf := fillBuffer(t, solidFrame(2, 2, 255, 0, 0))
	raw := NewComputer(2).Compute(buf)

	require.Equal(t, uint32(4), raw.RCounts[255])
	require.Equal(t, uint32(4), raw.GCounts[0])
	require.Equal(t, uint32(4), raw.BCounts[0])
	require.Equal(t, uint32(4), raw.MaxCount)
	require.Equal(t, 4, raw.Pixels)

	for i := 0; i < 255; i++ {
		require.Zero(t, raw.RCounts[i], "r bin %d", i)
	}
	for i := 1; i < types.Bins; i++ {
		require.Zero(t, raw.GCounts[i], "g bin %d", i)
		require.Zero(t, raw.BCounts[i], "b bin %d", i)
	}

	// Each of the 2 columns gets 2 pixels of pure red luma
	wantLuma := 0.2126 * 255 * 2
	require.Len(t, raw.WaveSums, 2)
	require.InDelta(t, wantLuma, raw.WaveSums[0], 1e-9)
	require.InDelta(t, wantLuma, raw.WaveSums[1], 1e-9)
	require.Equal(t, uint32(2), raw.WavePixels[0])
	require.Equal(t, uint32(2), raw.WavePixels[1])
}

func TestComputeChannelSumsEqualPixelCount(t *testing.T) {
	// Patterned frame so bins spread out
	frame := solidFrame(16, 9, 0, 0, 0)
	for i := 0; i < 16*9; i++ {
		frame.Data[i*3] = byte(i % 256)
		frame.Data[i*3+1] = byte((i * 7) % 256)
		frame.Data[i*3+2] = byte((i * 13) % 256)
	}
	buf := fillBuffer(t, frame)
	raw := NewComputer(4).Compute(buf)

	pixels := 16 * 9
	require.Equal(t, pixels, sumCounts(raw.RCounts))
	require.Equal(t, pixels, sumCounts(raw.GCounts))
	require.Equal(t, pixels, sumCounts(raw.BCounts))
	require.Equal(t, pixels, raw.Pixels)

	wavePixels := 0
	for _, n := range raw.WavePixels {
		wavePixels += int(n)
	}
	require.Equal(t, pixels, wavePixels, "every pixel lands in exactly one column band")
}

func TestComputeDegenerateFrames(t *testing.T) {
	// All-black: one bin per channel carries the full pixel count
	buf := fillBuffer(t, solidFrame(8, 4, 0, 0, 0))
	raw := NewComputer(4).Compute(buf)

	require.Equal(t, uint32(32), raw.RCounts[0])
	require.Equal(t, uint32(32), raw.GCounts[0])
	require.Equal(t, uint32(32), raw.BCounts[0])
	require.Equal(t, uint32(32), raw.MaxCount, "max_count is never zero for a non-empty buffer")

	// All-white
	buf = fillBuffer(t, solidFrame(8, 4, 255, 255, 255))
	raw = NewComputer(4).Compute(buf)

	require.Equal(t, uint32(32), raw.RCounts[255])
	require.Equal(t, uint32(32), raw.MaxCount)
}

func TestComputeMaxCountSpansChannels(t *testing.T) {
	// Green varies, red/blue constant: MaxCount must come from the
	// constant channels, not per-channel maxima in isolation
	frame := solidFrame(8, 1, 0, 0, 0)
	for i := 0; i < 8; i++ {
		frame.Data[i*3+1] = byte(i * 30)
	}
	buf := fillBuffer(t, frame)
	raw := NewComputer(2).Compute(buf)

	require.Equal(t, uint32(8), raw.MaxCount)
	require.Equal(t, uint32(1), raw.GCounts[0])
}

func TestComputeReusesRawAcrossTicks(t *testing.T) {
	comp := NewComputer(2)

	raw1 := comp.Compute(fillBuffer(t, solidFrame(2, 2, 255, 0, 0)))
	require.Equal(t, uint32(4), raw1.RCounts[255])

	// Second tick with a different frame must fully reset the counts
	raw2 := comp.Compute(fillBuffer(t, solidFrame(2, 2, 0, 255, 0)))
	require.Zero(t, raw2.RCounts[255])
	require.Equal(t, uint32(4), raw2.GCounts[255])
	require.Equal(t, uint32(4), raw2.MaxCount)
}

func TestComputeColumnAssignment(t *testing.T) {
	// 4 pixels wide, 2 columns: left half bright, right half dark
	frame := solidFrame(4, 1, 0, 0, 0)
	frame.Data[0*3] = 255 // x=0
	frame.Data[1*3] = 255 // x=1
	buf := fillBuffer(t, frame)
	raw := NewComputer(2).Compute(buf)

	require.InDelta(t, 0.2126*255*2, raw.WaveSums[0], 1e-9)
	require.InDelta(t, 0, raw.WaveSums[1], 1e-9)
	require.Equal(t, uint32(2), raw.WavePixels[0])
	require.Equal(t, uint32(2), raw.WavePixels[1])
}
