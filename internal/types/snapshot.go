package types

import "time"

// Bins is the number of discrete intensity levels per color channel.
// Channel histograms always have exactly Bins entries.
const Bins = 256

// HistogramSnapshot is the per-tick output of the analysis engine: three
// normalized channel histograms plus a luma waveform.
//
// Contract:
//   - R, G, B have exactly Bins entries, each value in [0,1]
//   - Luma has a constant number of entries (engine wave-column count),
//     each value on a 0-255 scale (average column luma)
//   - A snapshot is immutable once published; a new tick supersedes it
//     with a fresh snapshot, it is never mutated in place
//
// The R/G/B vs Luma scale asymmetry is part of the renderer contract and
// is intentional (renderers draw bins against a unit axis and the waveform
// against the intensity axis).
type HistogramSnapshot struct {
	// R, G, B are normalized per-channel intensity histograms,
	// index = intensity level 0-255, value in [0,1].
	R []float64
	G []float64
	B []float64

	// Luma holds per-column average luma on a 0-255 scale.
	Luma []float64

	// Synthetic is true when the snapshot was generated without a real
	// frame (capture unavailable or failed for that tick).
	Synthetic bool

	// Timestamp is when the snapshot was computed.
	Timestamp time.Time

	// SourceStream identifies the stream the snapshot describes.
	SourceStream string

	// Seq is assigned by the snapshot bus during Publish.
	// Monotonically increasing; used for drop accounting.
	Seq uint64
}

// NewHistogramSnapshot allocates an empty snapshot with Bins channel
// entries and waveColumns luma entries.
func NewHistogramSnapshot(waveColumns int) *HistogramSnapshot {
	return &HistogramSnapshot{
		R:    make([]float64, Bins),
		G:    make([]float64, Bins),
		B:    make([]float64, Bins),
		Luma: make([]float64, waveColumns),
	}
}
