// Command scopeview opens a desktop window showing the live histogram
// and waveform. Analysis ticks are driven by the display loop: each
// frame update fires exactly one engine tick, so the charts are always
// in sync with what is on screen.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/e7canasta/orion-scope/internal/config"
	"github.com/e7canasta/orion-scope/internal/scope"
	"github.com/e7canasta/orion-scope/internal/snapbus"
	"github.com/e7canasta/orion-scope/internal/source"
)

const defaultConfigPath = "config/scope.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	src, err := buildSource(cfg)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := src.Start(ctx); err != nil {
		slog.Warn("source start failed, running on synthetic data", "error", err)
	}
	defer src.Stop()

	sched := scope.NewManualScheduler()
	bus := snapbus.New()
	defer bus.Close()

	eng, err := scope.New(scope.Config{
		BufferWidth:  cfg.Scope.BufferWidth,
		BufferHeight: cfg.Scope.BufferHeight,
		WaveColumns:  cfg.Scope.WaveColumns,
		SourceStream: cfg.Source.Stream,
	}, src, sched, bus, nil)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	if err := eng.Start(); err != nil {
		slog.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	defer eng.Stop()

	v := &viewer{engine: eng, sched: sched, bus: bus, src: src}
	ebiten.SetWindowTitle("orion-scope (" + cfg.InstanceID + ")")
	ebiten.SetWindowSize(viewWidth, viewHeight)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(v); err != nil {
		slog.Error("viewer exited", "error", err)
		os.Exit(1)
	}
}

func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.Source.Kind == "gst" {
		return source.NewGstStream(source.GstConfig{
			URI:       cfg.Source.URI,
			Width:     cfg.Source.Width,
			Height:    cfg.Source.Height,
			TargetFPS: cfg.Source.FPS,
			Stream:    cfg.Source.Stream,
		})
	}
	return source.NewMockStream(
		cfg.Source.Width,
		cfg.Source.Height,
		cfg.Source.FPS,
		cfg.Source.Pattern,
		cfg.Source.Stream,
	), nil
}
