package scope

import (
	"errors"
	"fmt"
	"testing"

	"github.com/e7canasta/orion-scope/internal/source"
)

func TestCaptureUnavailableWhenNotReady(t *testing.T) {
	buf, err := NewFrameBuffer(4, 4)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	src := &stubSource{}
	src.set(false, nil, nil)

	if err := buf.Capture(src); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("Capture() error = %v, want ErrUnavailable", err)
	}
}

func TestCaptureReadFailed(t *testing.T) {
	buf, err := NewFrameBuffer(4, 4)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	src := &stubSource{}
	src.set(true, nil, fmt.Errorf("tainted surface"))

	if err := buf.Capture(src); !errors.Is(err, source.ErrReadFailed) {
		t.Errorf("Capture() error = %v, want ErrReadFailed", err)
	}
}

func TestCaptureMalformedFrame(t *testing.T) {
	buf, err := NewFrameBuffer(4, 4)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	// Frame claims 8x8 but carries too few bytes
	frame := solidFrame(2, 2, 10, 20, 30)
	frame.Width, frame.Height = 8, 8

	src := &stubSource{}
	src.set(true, frame, nil)

	if err := buf.Capture(src); !errors.Is(err, source.ErrReadFailed) {
		t.Errorf("Capture() error = %v, want ErrReadFailed", err)
	}
}

func TestCaptureDownsamplesSolidColor(t *testing.T) {
	buf, err := NewFrameBuffer(4, 2)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	src := &stubSource{}
	src.set(true, solidFrame(16, 8, 200, 100, 50), nil)

	if err := buf.Capture(src); err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}

	pix := buf.Pix()
	for i := 0; i < buf.Width()*buf.Height(); i++ {
		if pix[i*3] != 200 || pix[i*3+1] != 100 || pix[i*3+2] != 50 {
			t.Fatalf("pixel %d = (%d,%d,%d), want (200,100,50)",
				i, pix[i*3], pix[i*3+1], pix[i*3+2])
		}
	}
}

func TestCaptureSameSizeCopiesExactly(t *testing.T) {
	buf, err := NewFrameBuffer(2, 2)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	// 2x2 frame with four distinct pixels
	frame := solidFrame(2, 2, 0, 0, 0)
	colors := [4][3]byte{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}
	for i, c := range colors {
		frame.Data[i*3] = c[0]
		frame.Data[i*3+1] = c[1]
		frame.Data[i*3+2] = c[2]
	}

	src := &stubSource{}
	src.set(true, frame, nil)

	if err := buf.Capture(src); err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}

	pix := buf.Pix()
	for i, c := range colors {
		if pix[i*3] != c[0] || pix[i*3+1] != c[1] || pix[i*3+2] != c[2] {
			t.Errorf("pixel %d = (%d,%d,%d), want %v", i, pix[i*3], pix[i*3+1], pix[i*3+2], c)
		}
	}
}

func TestCaptureSteadyStateAllocs(t *testing.T) {
	buf, err := NewFrameBuffer(16, 9)
	if err != nil {
		t.Fatalf("NewFrameBuffer() failed: %v", err)
	}

	src := &stubSource{}
	src.set(true, solidFrame(64, 36, 128, 128, 128), nil)

	allocs := testing.AllocsPerRun(50, func() {
		if err := buf.Capture(src); err != nil {
			t.Fatalf("Capture() failed: %v", err)
		}
	})
	if allocs != 0 {
		t.Errorf("Capture() allocates %.1f objects per run, want 0 on the steady-state path", allocs)
	}
}

func TestNewFrameBufferRejectsBadResolution(t *testing.T) {
	if _, err := NewFrameBuffer(0, 90); err == nil {
		t.Error("NewFrameBuffer(0, 90) should fail")
	}
	if _, err := NewFrameBuffer(160, -1); err == nil {
		t.Error("NewFrameBuffer(160, -1) should fail")
	}
}
