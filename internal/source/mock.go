package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-scope/internal/types"
)

// smpteBars are the 7 vertical stripes of a standard color bars pattern.
var smpteBars = [7][3]uint8{
	{192, 192, 192}, // Gray
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
}

// MockStream generates synthetic frames for testing and broker-less demos.
//
// Patterns:
//   - "bars": static SMPTE color bars
//   - "gradient": horizontal gradient that scrolls with the sequence
//     number, so histograms visibly move between frames
//
// SetAvailable simulates a source losing and regaining its feed (camera
// permission granted late, playback starting late). While unavailable the
// generator keeps running but Ready() reports false, which drives the
// engine into synthetic mode.
type MockStream struct {
	width   int
	height  int
	fps     float64
	pattern string
	stream  string

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu            sync.RWMutex
	latest        *types.Frame
	seq           uint64
	framesEmitted uint64
	isRunning     bool
	available     bool
	startTime     time.Time
}

// NewMockStream creates a new mock stream provider
func NewMockStream(width, height int, fps float64, pattern, stream string) *MockStream {
	return &MockStream{
		width:     width,
		height:    height,
		fps:       fps,
		pattern:   pattern,
		stream:    stream,
		stopCh:    make(chan struct{}),
		available: true,
	}
}

// Start begins generating frames
func (m *MockStream) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("mock stream already running")
	}
	m.isRunning = true
	m.startTime = time.Now()
	m.mu.Unlock()

	slog.Info("mock stream starting",
		"width", m.width,
		"height", m.height,
		"fps", m.fps,
		"pattern", m.pattern,
		"stream", m.stream,
	)

	m.wg.Add(1)
	go m.generateFrames(ctx)

	return nil
}

// Stop stops the stream. Idempotent.
func (m *MockStream) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()

	m.mu.RLock()
	emitted := m.framesEmitted
	elapsed := time.Since(m.startTime)
	m.mu.RUnlock()

	slog.Info("mock stream stopped",
		"frames_emitted", emitted,
		"duration", elapsed,
	)

	return nil
}

// SetAvailable toggles frame availability without stopping the generator.
func (m *MockStream) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// Ready reports whether a decodable frame is available.
func (m *MockStream) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning && m.available && m.latest != nil
}

// Frame returns the latest generated frame.
func (m *MockStream) Frame() (*types.Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isRunning || !m.available || m.latest == nil {
		return nil, ErrUnavailable
	}
	return m.latest, nil
}

// Stats returns stream statistics
func (m *MockStream) Stats() types.SourceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fpsReal float64
	if m.isRunning && m.framesEmitted > 0 {
		elapsed := time.Since(m.startTime).Seconds()
		if elapsed > 0 {
			fpsReal = float64(m.framesEmitted) / elapsed
		}
	}

	return types.SourceStats{
		FrameCount:   m.framesEmitted,
		FPSTarget:    m.fps,
		FPSReal:      fpsReal,
		Resolution:   fmt.Sprintf("%dx%d", m.width, m.height),
		SourceStream: m.stream,
		IsLive:       m.isRunning && m.available,
	}
}

// generateFrames regenerates the latest frame at the target FPS
func (m *MockStream) generateFrames(ctx context.Context) {
	defer m.wg.Done()

	frameDuration := time.Duration(float64(time.Second) / m.fps)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	slog.Debug("mock frame generator started", "frame_duration", frameDuration)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			frame := m.createFrame()
			m.mu.Lock()
			m.latest = frame
			m.framesEmitted++
			m.mu.Unlock()
		}
	}
}

// createFrame renders the configured pattern into a fresh RGB24 buffer
func (m *MockStream) createFrame() *types.Frame {
	m.mu.Lock()
	seq := m.seq
	m.seq++
	m.mu.Unlock()

	data := make([]byte, m.width*m.height*3)

	switch m.pattern {
	case "bars":
		fillColorBars(data, m.width, m.height)
	default:
		fillGradient(data, m.width, m.height, seq)
	}

	return &types.Frame{
		Seq:          seq,
		Timestamp:    time.Now(),
		Width:        m.width,
		Height:       m.height,
		Data:         data,
		SourceStream: m.stream,
		TraceID:      uuid.New().String(),
	}
}

// fillColorBars fills buf with a standard SMPTE color bars pattern
func fillColorBars(buf []byte, width, height int) {
	barWidth := width / len(smpteBars)
	if barWidth == 0 {
		barWidth = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			barIdx := x / barWidth
			if barIdx >= len(smpteBars) {
				barIdx = len(smpteBars) - 1
			}
			i := (y*width + x) * 3
			buf[i] = smpteBars[barIdx][0]
			buf[i+1] = smpteBars[barIdx][1]
			buf[i+2] = smpteBars[barIdx][2]
		}
	}
}

// fillGradient fills buf with a horizontal gradient scrolled by seq,
// so consecutive frames differ and histograms drift
func fillGradient(buf []byte, width, height int, seq uint64) {
	shift := int(seq % 256)
	for y := 0; y < height; y++ {
		vert := uint8(y * 255 / max(height-1, 1))
		for x := 0; x < width; x++ {
			level := uint8((x*255/max(width-1, 1) + shift) % 256)
			i := (y*width + x) * 3
			buf[i] = level
			buf[i+1] = 255 - level
			buf[i+2] = vert
		}
	}
}
