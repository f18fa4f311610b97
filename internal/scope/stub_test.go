package scope

import (
	"context"
	"sync"

	"github.com/e7canasta/orion-scope/internal/types"
)

// stubSource is a controllable frame source for engine/buffer tests:
// availability, frame content and read failures are all scriptable.
type stubSource struct {
	mu      sync.Mutex
	ready   bool
	frame   *types.Frame
	readErr error
}

func (s *stubSource) Start(ctx context.Context) error { return nil }
func (s *stubSource) Stop() error                     { return nil }

func (s *stubSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *stubSource) Frame() (*types.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.frame, nil
}

func (s *stubSource) Stats() types.SourceStats { return types.SourceStats{} }

func (s *stubSource) set(ready bool, frame *types.Frame, readErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
	s.frame = frame
	s.readErr = readErr
}

// solidFrame builds a width×height RGB24 frame filled with one color.
func solidFrame(width, height int, r, g, b byte) *types.Frame {
	data := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		data[i*3] = r
		data[i*3+1] = g
		data[i*3+2] = b
	}
	return &types.Frame{Width: width, Height: height, Data: data}
}
