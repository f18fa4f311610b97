package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/e7canasta/orion-scope/internal/types"
)

func chartSnap(synthetic bool) *types.HistogramSnapshot {
	snap := types.NewHistogramSnapshot(50)
	snap.Seq = 7
	snap.Timestamp = time.Date(2026, 8, 24, 15, 12, 3, 500e6, time.UTC)
	snap.Synthetic = synthetic
	snap.R[255] = 1.0
	snap.G[128] = 0.5
	snap.B[0] = 0.8
	for j := range snap.Luma {
		snap.Luma[j] = 128
	}
	return snap
}

func TestRenderDimensionsAndCurves(t *testing.T) {
	img := Render(chartSnap(false))

	b := img.Bounds()
	if b.Dx() != chartWidth || b.Dy() != chartHeight {
		t.Fatalf("chart = %dx%d, want %dx%d", b.Dx(), b.Dy(), chartWidth, chartHeight)
	}

	// The full-height red peak at bin 255 paints the top-right of the
	// histogram band
	x := 255 * chartWidth / types.Bins
	if img.RGBAAt(x, 2) == background {
		t.Error("red peak column not painted")
	}

	// Mid-gray waveform paints the middle of the bottom band
	midY := histHeight + bandGap + waveHeight/2
	painted := false
	for x := 0; x < chartWidth; x++ {
		for dy := -3; dy <= 3; dy++ {
			if img.RGBAAt(x, midY+dy) == lumaPen {
				painted = true
			}
		}
	}
	if !painted {
		t.Error("waveform trace not painted at midline")
	}
}

func TestRenderSyntheticMarkerStrip(t *testing.T) {
	if Render(chartSnap(true)).RGBAAt(10, 0) != synthPen {
		t.Error("synthetic snapshot missing marker strip")
	}
	// Bin 10 carries no histogram value, so row 0 stays background
	if Render(chartSnap(false)).RGBAAt(10, 0) != background {
		t.Error("real snapshot should not carry marker strip")
	}
}

func TestChartSaverWritesFile(t *testing.T) {
	dir := t.TempDir()
	cs, err := NewChartSaver(dir, "png", 85)
	if err != nil {
		t.Fatalf("NewChartSaver() failed: %v", err)
	}

	if err := cs.Save(chartSnap(false)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	want := filepath.Join(dir, "scope_000007_20260824_151203.500.png")
	info, err := os.Stat(want)
	if err != nil {
		t.Fatalf("expected chart file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart file is empty")
	}

	saved, dropped := cs.Stats()
	if saved != 1 || dropped != 0 {
		t.Errorf("stats = saved %d dropped %d, want 1/0", saved, dropped)
	}
}

func TestChartSaverRejectsUnknownFormat(t *testing.T) {
	if _, err := NewChartSaver(t.TempDir(), "bmp", 85); err == nil {
		t.Error("NewChartSaver should reject unknown formats")
	}
}
