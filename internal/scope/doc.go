// Package scope implements the live pixel-statistics engine: per-channel
// intensity histograms and a luma waveform computed from a downsampled
// copy of the current video frame, once per scheduling tick.
//
// Philosophy: "Never show an empty chart." When no usable frame exists
// the engine synthesizes plausible histogram/waveform data, and it
// re-decides real-vs-synthetic freshly on every tick so a recovering
// source resumes real sampling immediately.
//
// Pipeline per tick:
//
//	FrameBuffer.Capture → Computer.Compute → Normalize   (real path)
//	                    ↘ Synthetic.Generate             (fallback path)
//
// Either path yields a complete HistogramSnapshot, published through the
// snapshot bus. The FrameBuffer is exclusively owned by the Engine and
// never shared with consumers.
package scope
