package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-scope/internal/types"
)

// zeroNoise suppresses jitter so the deterministic shape is observable.
func zeroNoise() float64 { return 0 }

func TestGenerateDeterministicWithoutJitter(t *testing.T) {
	gen := NewSynthetic(50, zeroNoise)

	a := gen.Generate(0.7)
	b := gen.Generate(0.7)

	require.Equal(t, a.R, b.R, "same offset must yield bit-identical non-jitter output")
	require.Equal(t, a.G, b.G)
	require.Equal(t, a.B, b.B)
	require.Equal(t, a.Luma, b.Luma)
}

func TestGenerateShapeContract(t *testing.T) {
	gen := NewSynthetic(50, nil) // default jitter source

	for _, offset := range []float64{0, 0.045, 1.3, 7.9, 100.5} {
		snap := gen.Generate(offset)

		require.True(t, snap.Synthetic)
		require.Len(t, snap.R, types.Bins)
		require.Len(t, snap.G, types.Bins)
		require.Len(t, snap.B, types.Bins)
		require.Len(t, snap.Luma, 50)

		for i := 0; i < types.Bins; i++ {
			for _, v := range []float64{snap.R[i], snap.G[i], snap.B[i]} {
				require.GreaterOrEqual(t, v, 0.0, "offset %g bin %d", offset, i)
				require.LessOrEqual(t, v, 1.0, "offset %g bin %d", offset, i)
			}
		}
		for j, v := range snap.Luma {
			require.GreaterOrEqual(t, v, 0.0, "offset %g column %d", offset, j)
			require.LessOrEqual(t, v, 255.0, "offset %g column %d", offset, j)
		}
	}
}

func TestGenerateCurvesDrift(t *testing.T) {
	gen := NewSynthetic(50, zeroNoise)

	a := gen.Generate(0.5)
	b := gen.Generate(1.5)

	require.NotEqual(t, a.R, b.R, "advancing the offset must move the curves")
	require.NotEqual(t, a.Luma, b.Luma)
}

func TestGenerateChannelsSeparate(t *testing.T) {
	gen := NewSynthetic(50, zeroNoise)
	snap := gen.Generate(0.9)

	// Channel-specific phases put the three bells at different centers
	require.NotEqual(t, snap.R, snap.G)
	require.NotEqual(t, snap.G, snap.B)
}

func TestGenerateLumaMatchesRealScale(t *testing.T) {
	gen := NewSynthetic(50, zeroNoise)
	snap := gen.Generate(2.0)

	// The waveform is biased to a positive midline on the 0-255 scale;
	// it should never collapse to the bottom of the range
	var sum float64
	for _, v := range snap.Luma {
		sum += v
	}
	mean := sum / float64(len(snap.Luma))
	require.Greater(t, mean, 40.0)
	require.Less(t, mean, 220.0)
}
