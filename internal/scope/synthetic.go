package scope

import (
	"math"
	"math/rand"
	"time"

	"github.com/e7canasta/orion-scope/internal/types"
)

// OffsetStep is how far the synthetic time offset advances per tick.
// Small enough that curves drift smoothly at display rates.
const OffsetStep = 0.045

// Channel phase offsets (R, G, B) so the three curves visually separate
// and drift independently.
var channelPhases = [3]float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}

// NoiseFunc returns a pseudo-random sample in [-1,1). Injected so tests
// can suppress jitter (a zero func) and verify the deterministic shape.
type NoiseFunc func() float64

// Synthetic generates plausible histogram/waveform data with no real
// frame, so the visualization always has motion and shape. It is a pure
// function of the offset apart from the isolated jitter term: given the
// same offset and the same noise source state, output is reproducible.
type Synthetic struct {
	cols  int
	noise NoiseFunc
}

// NewSynthetic creates a generator producing waveColumns luma columns.
// A nil noise falls back to a time-seeded uniform source.
func NewSynthetic(waveColumns int, noise NoiseFunc) *Synthetic {
	if noise == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		noise = func() float64 { return rng.Float64()*2 - 1 }
	}
	return &Synthetic{cols: waveColumns, noise: noise}
}

// Generate produces a synthetic snapshot for the given time offset.
// It cannot fail; it has no external dependency.
//
// Channel bins: a bell curve whose center oscillates with a channel-phased
// sine of the offset, whose width breathes with a second, faster sine,
// scaled by a slowly varying gain, plus bounded jitter. Values stay in
// [0,1] by construction (gain + jitter amplitude < 1, clamped).
//
// Luma columns: a column-phased sine around a positive midline matching
// the real-data 0-255 scale, plus bounded jitter.
func (s *Synthetic) Generate(offset float64) *types.HistogramSnapshot {
	snap := types.NewHistogramSnapshot(s.cols)
	snap.Synthetic = true

	channels := [3][]float64{snap.R, snap.G, snap.B}
	for c, bins := range channels {
		phase := channelPhases[c]
		center := 128 + 96*math.Sin(offset+phase)
		sigma := 26 + 9*math.Sin(2.7*offset+1.3*phase)
		gain := 0.82 + 0.12*math.Sin(1.9*offset+phase)

		inv := 1 / (2 * sigma * sigma)
		for i := 0; i < types.Bins; i++ {
			d := float64(i) - center
			v := gain*math.Exp(-d*d*inv) + 0.04*s.noise()
			bins[i] = clamp(v, 0, 1)
		}
	}

	for j := 0; j < s.cols; j++ {
		v := 120 + 58*math.Sin(offset+0.35*float64(j)) + 6*s.noise()
		snap.Luma[j] = clamp(v, 0, 255)
	}

	return snap
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
