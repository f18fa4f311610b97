package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/e7canasta/orion-scope/internal/scope"
	"github.com/e7canasta/orion-scope/internal/snapbus"
	"github.com/e7canasta/orion-scope/internal/source"
	"github.com/e7canasta/orion-scope/internal/types"
)

// Window layout: histogram band on top, waveform band below, with a
// text overlay in the top-left corner.
const (
	viewWidth  = 800
	viewHeight = 450
	histBandH  = 280
	waveBandH  = viewHeight - histBandH
)

var (
	redPen   = color.RGBA{235, 80, 70, 200}
	greenPen = color.RGBA{90, 210, 100, 200}
	bluePen  = color.RGBA{85, 130, 245, 200}
	lumaPen  = color.RGBA{230, 230, 215, 255}
	gridPen  = color.RGBA{45, 45, 52, 255}
	synthPen = color.RGBA{180, 150, 60, 255}
)

type viewer struct {
	engine *scope.Engine
	sched  *scope.ManualScheduler
	bus    *snapbus.Bus
	src    source.Source
}

// Update fires one analysis tick per display frame. The engine
// reschedules itself after each tick, so there is always exactly one
// pending callback to fire.
func (v *viewer) Update() error {
	v.sched.Fire()
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	snap := v.bus.Latest()
	if snap == nil {
		ebitenutil.DebugPrint(screen, "waiting for first snapshot...")
		return
	}

	drawGrid(screen)
	drawHistogram(screen, snap.R, redPen)
	drawHistogram(screen, snap.G, greenPen)
	drawHistogram(screen, snap.B, bluePen)
	drawWaveform(screen, snap.Luma)

	if snap.Synthetic {
		vector.DrawFilledRect(screen, 0, 0, viewWidth, 3, synthPen, false)
	}

	stats := v.engine.Stats()
	mode := "live"
	if snap.Synthetic {
		mode = "synthetic"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"seq %d  %s  ticks %d (real %d / synth %d)  src fps %.1f",
		snap.Seq, mode, stats.Ticks, stats.RealTicks, stats.SyntheticTicks,
		v.src.Stats().FPSReal,
	))
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewWidth, viewHeight
}

func drawGrid(screen *ebiten.Image) {
	for _, frac := range []float32{0.25, 0.5, 0.75} {
		hy := float32(histBandH) * (1 - frac)
		wy := float32(histBandH) + float32(waveBandH)*(1-frac)
		vector.StrokeLine(screen, 0, hy, viewWidth, hy, 1, gridPen, false)
		vector.StrokeLine(screen, 0, wy, viewWidth, wy, 1, gridPen, false)
	}
	vector.StrokeLine(screen, 0, histBandH, viewWidth, histBandH, 2, gridPen, false)
}

// drawHistogram renders one normalized channel as filled bin bars
func drawHistogram(screen *ebiten.Image, bins []float64, pen color.RGBA) {
	binW := float32(viewWidth) / float32(types.Bins)
	for i, v := range bins {
		if v <= 0 {
			continue
		}
		if v > 1 {
			v = 1
		}
		h := float32(v) * (histBandH - 4)
		vector.DrawFilledRect(screen, float32(i)*binW, histBandH-h, binW, h, pen, false)
	}
}

// drawWaveform renders luma columns as a connected trace on the 0-255 scale
func drawWaveform(screen *ebiten.Image, luma []float64) {
	if len(luma) < 2 {
		return
	}
	colW := float32(viewWidth) / float32(len(luma))
	y := func(v float64) float32 {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return float32(histBandH) + float32(waveBandH) - float32(v/255)*float32(waveBandH-4) - 2
	}
	for j := 1; j < len(luma); j++ {
		x0 := (float32(j-1) + 0.5) * colW
		x1 := (float32(j) + 0.5) * colW
		vector.StrokeLine(screen, x0, y(luma[j-1]), x1, y(luma[j]), 2, lumaPen, true)
	}
}
