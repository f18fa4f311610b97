package export

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	webp "github.com/daanv2/go-webp"
	webpconfig "github.com/daanv2/go-webp/pkg/config"

	"github.com/e7canasta/orion-scope/internal/types"
)

// ChartSaver writes rendered snapshot charts to disk.
//
// Thread-safe: can be called from multiple goroutines concurrently.
type ChartSaver struct {
	outputDir     string
	format        string
	quality       int
	chartsSaved   atomic.Uint64
	chartsDropped atomic.Uint64
}

// NewChartSaver creates a chart saver with given output directory and format.
//
// Format: "png", "jpeg" or "webp"
// Quality: 1-100 (jpeg and webp only)
func NewChartSaver(outputDir, format string, quality int) (*ChartSaver, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	switch format {
	case "png", "jpeg", "webp":
	default:
		return nil, fmt.Errorf("unsupported format: %s (must be png, jpeg or webp)", format)
	}

	return &ChartSaver{
		outputDir: outputDir,
		format:    format,
		quality:   quality,
	}, nil
}

// Save renders a snapshot and writes it to disk.
//
// Filename format: scope_{seq:06d}_{timestamp}.{ext}
// Example: scope_000042_20260824_151203.500.png
func (cs *ChartSaver) Save(snap *types.HistogramSnapshot) error {
	img := Render(snap)

	filename := fmt.Sprintf("scope_%06d_%s.%s",
		snap.Seq,
		snap.Timestamp.Format("20060102_150405.000"),
		cs.format)
	path := filepath.Join(cs.outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		cs.chartsDropped.Add(1)
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch cs.format {
	case "png":
		err = png.Encode(file, img)
	case "jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: cs.quality})
	case "webp":
		conf := &webpconfig.Config{}
		if err = conf.Init(); err == nil {
			conf.Quality = float64(cs.quality)
			err = webp.Encode(file, img, conf)
		}
	}
	if err != nil {
		cs.chartsDropped.Add(1)
		return fmt.Errorf("%s encode failed: %w", cs.format, err)
	}

	cs.chartsSaved.Add(1)
	return nil
}

// Stats returns current save statistics.
func (cs *ChartSaver) Stats() (saved, dropped uint64) {
	return cs.chartsSaved.Load(), cs.chartsDropped.Load()
}
