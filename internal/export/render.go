// Package export renders histogram snapshots to chart images and writes
// them to disk (optional feature).
package export

import (
	"image"
	"image/color"

	"github.com/e7canasta/orion-scope/internal/types"
)

// Chart layout in pixels. Two bins per horizontal pixel column keeps the
// image a fixed 512 wide regardless of waveform column count.
const (
	chartWidth  = 512
	histHeight  = 180
	waveHeight  = 110
	bandGap     = 8
	chartHeight = histHeight + bandGap + waveHeight
)

var (
	background = color.RGBA{18, 18, 22, 255}
	gridLine   = color.RGBA{40, 40, 48, 255}
	redPen     = color.RGBA{235, 80, 70, 255}
	greenPen   = color.RGBA{90, 210, 100, 255}
	bluePen    = color.RGBA{85, 130, 245, 255}
	lumaPen    = color.RGBA{230, 230, 215, 255}
	synthPen   = color.RGBA{180, 150, 60, 255}
)

// Render draws a snapshot as a two-band chart: RGB histogram curves on
// top, luma waveform below. Synthetic snapshots get an amber marker strip
// so exported frames are distinguishable at a glance.
func Render(snap *types.HistogramSnapshot) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))

	for y := 0; y < chartHeight; y++ {
		for x := 0; x < chartWidth; x++ {
			img.SetRGBA(x, y, background)
		}
	}

	// Quartile grid lines in both bands
	for _, frac := range []float64{0.25, 0.5, 0.75} {
		hy := histHeight - int(frac*float64(histHeight))
		wy := histHeight + bandGap + waveHeight - int(frac*float64(waveHeight))
		for x := 0; x < chartWidth; x++ {
			img.SetRGBA(x, hy, gridLine)
			img.SetRGBA(x, wy, gridLine)
		}
	}

	drawChannel(img, snap.R, redPen)
	drawChannel(img, snap.G, greenPen)
	drawChannel(img, snap.B, bluePen)
	drawWaveform(img, snap.Luma)

	if snap.Synthetic {
		for x := 0; x < chartWidth; x++ {
			img.SetRGBA(x, 0, synthPen)
			img.SetRGBA(x, 1, synthPen)
		}
	}

	return img
}

// drawChannel plots one normalized 256-bin channel as a vertical-line
// curve in the top band. Values are clamped so a malformed snapshot can
// never paint outside the band.
func drawChannel(img *image.RGBA, bins []float64, pen color.RGBA) {
	for i := 0; i < len(bins) && i < types.Bins; i++ {
		v := bins[i]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		h := int(v * float64(histHeight-1))
		x := i * chartWidth / types.Bins
		for y := histHeight - 1 - h; y < histHeight; y++ {
			blend(img, x, y, pen)
			blend(img, x+1, y, pen)
		}
	}
}

// drawWaveform plots the luma column trace in the bottom band. Columns
// are on the 0-255 intensity scale.
func drawWaveform(img *image.RGBA, luma []float64) {
	if len(luma) == 0 {
		return
	}
	top := histHeight + bandGap
	for j, v := range luma {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		x0 := j * chartWidth / len(luma)
		x1 := (j + 1) * chartWidth / len(luma)
		y := top + waveHeight - 1 - int(v/255.0*float64(waveHeight-1))
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, lumaPen)
			if y+1 < top+waveHeight {
				img.SetRGBA(x, y+1, lumaPen)
			}
		}
	}
}

// blend adds a channel pen additively so overlapping curves stay legible
func blend(img *image.RGBA, x, y int, pen color.RGBA) {
	if x < 0 || x >= chartWidth || y < 0 || y >= histHeight {
		return
	}
	old := img.RGBAAt(x, y)
	img.SetRGBA(x, y, color.RGBA{
		R: addClamp(old.R, pen.R/2),
		G: addClamp(old.G, pen.G/2),
		B: addClamp(old.B, pen.B/2),
		A: 255,
	})
}

func addClamp(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}
