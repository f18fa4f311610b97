package types

import "time"

// Frame represents a single video frame as delivered by a frame source.
//
// Data is interleaved RGB24 (RGBRGBRGB...), Width × Height × 3 bytes.
// Frames are shared by reference between the source and the analysis
// engine; Data MUST NOT be modified after the source hands the frame out.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the source
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains the raw pixel bytes (RGB24)
	Data []byte
	// SourceStream identifies the originating stream (e.g. "mock", "camera-1")
	SourceStream string
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// SourceStats contains frame source statistics.
type SourceStats struct {
	FrameCount   uint64
	FPSTarget    float64
	FPSReal      float64
	Resolution   string
	SourceStream string
	IsLive       bool
	Errors       uint64
}
