// Package service wires configuration, frame source, analysis engine,
// snapshot bus and outbound sinks into one runnable unit.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/orion-scope/internal/config"
	"github.com/e7canasta/orion-scope/internal/emitter"
	"github.com/e7canasta/orion-scope/internal/export"
	"github.com/e7canasta/orion-scope/internal/scope"
	"github.com/e7canasta/orion-scope/internal/snapbus"
	"github.com/e7canasta/orion-scope/internal/source"
)

// Service is the main scope orchestrator
type Service struct {
	cfg *config.Config

	// Core components
	src     source.Source
	sched   *scope.TickerScheduler
	bus     *snapbus.Bus
	engine  *scope.Engine
	emitter *emitter.MQTTEmitter
	saver   *export.ChartSaver

	// Lifecycle management
	started   time.Time
	mu        sync.RWMutex
	wg        sync.WaitGroup
	isRunning bool
}

// New creates a service instance from a configuration file
func New(configPath string) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("configuration loaded",
		"instance_id", cfg.InstanceID,
		"source", cfg.Source.Kind,
		"tick_hz", cfg.Scope.TickHz,
	)

	s := &Service{
		cfg: cfg,
		bus: snapbus.New(),
	}

	if err := s.initializeSource(); err != nil {
		return nil, err
	}

	sched, err := scope.NewTickerScheduler(cfg.Scope.TickHz)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.sched = sched

	eng, err := scope.New(scope.Config{
		BufferWidth:  cfg.Scope.BufferWidth,
		BufferHeight: cfg.Scope.BufferHeight,
		WaveColumns:  cfg.Scope.WaveColumns,
		SourceStream: cfg.Source.Stream,
	}, s.src, s.sched, s.bus, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	s.engine = eng

	if cfg.MQTT.Broker != "" {
		s.emitter = emitter.NewMQTTEmitter(cfg.MQTT, cfg.InstanceID)
	}

	if cfg.Export.EverySeconds > 0 {
		saver, err := export.NewChartSaver(cfg.Export.Dir, cfg.Export.Format, cfg.Export.Quality)
		if err != nil {
			return nil, fmt.Errorf("failed to create chart saver: %w", err)
		}
		s.saver = saver
	}

	return s, nil
}

// initializeSource selects the frame source from config
func (s *Service) initializeSource() error {
	switch s.cfg.Source.Kind {
	case "mock":
		s.src = source.NewMockStream(
			s.cfg.Source.Width,
			s.cfg.Source.Height,
			s.cfg.Source.FPS,
			s.cfg.Source.Pattern,
			s.cfg.Source.Stream,
		)
		slog.Info("using mock source", "pattern", s.cfg.Source.Pattern)
	case "gst":
		src, err := source.NewGstStream(source.GstConfig{
			URI:       s.cfg.Source.URI,
			Width:     s.cfg.Source.Width,
			Height:    s.cfg.Source.Height,
			TargetFPS: s.cfg.Source.FPS,
			Stream:    s.cfg.Source.Stream,
		})
		if err != nil {
			return fmt.Errorf("failed to create gst source: %w", err)
		}
		s.src = src
		slog.Info("using gstreamer source", "uri", s.cfg.Source.URI)
	default:
		return fmt.Errorf("unknown source kind: %s", s.cfg.Source.Kind)
	}
	return nil
}

// Run starts the service and blocks until the context is cancelled
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.isRunning = true
	s.started = time.Now()
	s.mu.Unlock()

	slog.Info("scope service starting", "instance_id", s.cfg.InstanceID)

	// The engine produces synthetic snapshots while the source warms up,
	// so a slow or failing source start never blocks the analysis loop
	if err := s.src.Start(ctx); err != nil {
		slog.Warn("source start failed, running on synthetic data", "error", err)
	}

	if err := s.sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := s.engine.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	if s.emitter != nil {
		if err := s.emitter.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect mqtt: %w", err)
		}
		read := s.bus.Subscribe("mqtt-emitter")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.emitter.Run(ctx, read)
		}()
	}

	if s.saver != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.exportCharts(ctx)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logStats(ctx)
	}()

	slog.Info("scope service running",
		"mqtt_enabled", s.emitter != nil,
		"export_enabled", s.saver != nil,
	)

	<-ctx.Done()

	slog.Info("scope service run loop exiting")
	return nil
}

// exportCharts periodically renders the latest snapshot to disk
func (s *Service) exportCharts(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.Export.EverySeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.bus.Latest()
			if snap == nil {
				continue
			}
			if err := s.saver.Save(snap); err != nil {
				slog.Warn("chart export failed", "seq", snap.Seq, "error", err)
			}
		}
	}
}

// logStats emits periodic operational stats
func (s *Service) logStats(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eng := s.engine.Stats()
			src := s.src.Stats()
			fields := []any{
				"ticks", eng.Ticks,
				"real", eng.RealTicks,
				"synthetic", eng.SyntheticTicks,
				"read_failures", eng.ReadFailures,
				"source_frames", src.FrameCount,
				"source_fps", fmt.Sprintf("%.1f", src.FPSReal),
				"source_live", src.IsLive,
			}
			if s.emitter != nil {
				em := s.emitter.Stats()
				fields = append(fields,
					"mqtt_published", em.Published,
					"mqtt_skipped", em.Skipped,
					"mqtt_errors", em.Errors,
				)
			}
			if s.saver != nil {
				saved, dropped := s.saver.Stats()
				fields = append(fields, "charts_saved", saved, "charts_dropped", dropped)
			}
			slog.Info("scope stats", fields...)
		}
	}
}

// Shutdown performs graceful shutdown of all components
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	slog.Info("shutting down scope service")

	// Shutdown sequence (order is important!):
	// 1. Stop the engine FIRST so no new snapshots are produced
	s.engine.Stop()

	// 2. Stop the scheduler (no more ticks fire)
	s.sched.Stop()

	// 3. Stop the frame source
	if err := s.src.Stop(); err != nil {
		slog.Error("failed to stop source", "error", err)
	}

	// 4. Close the bus; blocked subscriber readers wake and drain
	s.bus.Close()

	slog.Info("waiting for goroutines to finish")
	s.wg.Wait()
	slog.Info("all goroutines finished")

	// 5. Disconnect MQTT
	if s.emitter != nil {
		if err := s.emitter.Disconnect(); err != nil {
			slog.Error("failed to disconnect mqtt", "error", err)
		}
	}

	s.mu.Lock()
	uptime := time.Since(s.started)
	s.isRunning = false
	s.mu.Unlock()

	slog.Info("scope service shutdown complete", "uptime", uptime)
	return nil
}

// ShutdownTimeout returns the configured graceful shutdown timeout
func (s *Service) ShutdownTimeout() time.Duration {
	timeout := time.Duration(s.cfg.ShutdownTimeoutS) * time.Second
	if timeout == 0 {
		return 5 * time.Second
	}
	return timeout
}
