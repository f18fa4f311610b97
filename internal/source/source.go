// Package source provides frame sources for the analysis engine.
//
// A Source is pull-based: the engine asks "is a decodable frame available"
// (Ready) and "give me the current frame" (Frame) once per tick. Sources
// keep only the latest frame; there is no queue ("drop frames, never
// queue").
package source

import (
	"context"
	"errors"

	"github.com/e7canasta/orion-scope/internal/types"
)

// Capture error taxonomy. Both are recovered locally by the engine (it
// falls back to synthetic data for that tick); neither is fatal.
var (
	// ErrUnavailable indicates the source has no decodable frame yet
	// (not started, not connected, paused, or ended). Expected and
	// frequent during startup.
	ErrUnavailable = errors.New("source: no decodable frame available")

	// ErrReadFailed indicates the pixel read itself failed (malformed
	// payload, decode fault). Unexpected; worth logging.
	ErrReadFailed = errors.New("source: frame read failed")
)

// Source is the frame source contract consumed by the analysis engine.
//
// Lifecycle: New*() → Start() → Ready()/Frame() → Stop().
// All methods are safe for concurrent use.
type Source interface {
	// Start begins frame production. Non-blocking.
	Start(ctx context.Context) error

	// Stop halts frame production and releases resources. Idempotent.
	Stop() error

	// Ready reports whether a decodable frame is currently available.
	Ready() bool

	// Frame returns the latest frame, shared by reference.
	// Callers MUST NOT modify frame.Data (immutability contract).
	// Returns ErrUnavailable when no frame exists yet.
	Frame() (*types.Frame, error)

	// Stats returns a snapshot of source statistics.
	Stats() types.SourceStats
}
