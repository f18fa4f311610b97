package scope

import (
	"github.com/e7canasta/orion-scope/internal/types"
)

// Normalize converts raw counts into the bounded snapshot contract.
//
// Channel bins are divided by max(MaxCount, 1), guaranteeing values in
// [0,1] even for degenerate frames (the max(…,1) guard covers an empty
// or zero-sized capture). Luma columns become the column's average luma,
// left on the 0-255 scale. The bins/waveform scale asymmetry is part of
// the renderer contract.
//
// The returned snapshot is freshly allocated; metadata (timestamp,
// source, Seq) is stamped by the caller.
func Normalize(raw *RawHistogram) *types.HistogramSnapshot {
	snap := types.NewHistogramSnapshot(len(raw.WaveSums))

	max := raw.MaxCount
	if max == 0 {
		max = 1
	}
	scale := 1.0 / float64(max)

	for i := 0; i < types.Bins; i++ {
		snap.R[i] = float64(raw.RCounts[i]) * scale
		snap.G[i] = float64(raw.GCounts[i]) * scale
		snap.B[i] = float64(raw.BCounts[i]) * scale
	}

	for i := range raw.WaveSums {
		if raw.WavePixels[i] > 0 {
			snap.Luma[i] = raw.WaveSums[i] / float64(raw.WavePixels[i])
		}
	}

	return snap
}
