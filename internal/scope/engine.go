package scope

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/orion-scope/internal/snapbus"
	"github.com/e7canasta/orion-scope/internal/source"
	"github.com/e7canasta/orion-scope/internal/types"
)

// Config contains fixed engine sizes. These are construction-time
// constants: misconfiguration fails New, never a runtime tick.
type Config struct {
	// BufferWidth, BufferHeight is the downsample resolution (default 160x90).
	BufferWidth  int
	BufferHeight int
	// WaveColumns is the luma waveform column count (default 50).
	WaveColumns int
	// SourceStream labels published snapshots.
	SourceStream string
}

func (c *Config) applyDefaults() {
	if c.BufferWidth == 0 {
		c.BufferWidth = 160
	}
	if c.BufferHeight == 0 {
		c.BufferHeight = 90
	}
	if c.WaveColumns == 0 {
		c.WaveColumns = 50
	}
}

// EngineStats is a snapshot of engine operational state.
type EngineStats struct {
	Active         bool
	Ticks          uint64
	RealTicks      uint64
	SyntheticTicks uint64
	ReadFailures   uint64
}

// Engine is the per-tick orchestrator. While active, every scheduler
// tick performs exactly one freshly made decision: try a real capture;
// on ErrUnavailable or ErrReadFailed advance the synthetic offset and
// generate fallback data instead. The decision is a pure function of the
// capture outcome, with no persisted "mode" flag, so a source that
// recovers mid-session resumes real sampling on the very next tick.
//
// Lifecycle: New → Start → (ticks) → Stop → Start ... Stop cancels the
// pending scheduled tick before any other cleanup, guaranteeing no
// buffer writes after teardown begins. Re-entering Active restarts the
// synthetic offset at 0 but reuses the buffer allocation.
type Engine struct {
	cfg   Config
	src   source.Source
	sched TickScheduler
	bus   *snapbus.Bus

	buf   *FrameBuffer
	comp  *Computer
	synth *Synthetic

	mu           sync.Mutex
	active       bool
	ticket       Ticket
	offset       float64
	ticks        uint64
	realTicks    uint64
	synthTicks   uint64
	readFailures uint64
}

// New creates an engine. A nil noise uses the default jitter source;
// tests inject a zero NoiseFunc for deterministic synthetic output.
func New(cfg Config, src source.Source, sched TickScheduler, bus *snapbus.Bus, noise NoiseFunc) (*Engine, error) {
	cfg.applyDefaults()

	if src == nil {
		return nil, fmt.Errorf("scope: source is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("scope: scheduler is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("scope: snapshot bus is required")
	}
	if cfg.WaveColumns > cfg.BufferWidth {
		return nil, fmt.Errorf("scope: wave columns (%d) exceed buffer width (%d)",
			cfg.WaveColumns, cfg.BufferWidth)
	}

	buf, err := NewFrameBuffer(cfg.BufferWidth, cfg.BufferHeight)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:   cfg,
		src:   src,
		sched: sched,
		bus:   bus,
		buf:   buf,
		comp:  NewComputer(cfg.WaveColumns),
		synth: NewSynthetic(cfg.WaveColumns, noise),
	}, nil
}

// Start activates the engine and requests the first tick.
// The synthetic offset restarts at its initial value.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return fmt.Errorf("scope: engine already active")
	}
	e.active = true
	e.offset = 0
	e.ticket = e.sched.ScheduleNext(e.tick)

	slog.Info("scope engine started",
		"buffer", fmt.Sprintf("%dx%d", e.cfg.BufferWidth, e.cfg.BufferHeight),
		"wave_columns", e.cfg.WaveColumns,
		"stream", e.cfg.SourceStream,
	)
	return nil
}

// Stop deactivates the engine. The pending scheduled tick is cancelled
// first; no snapshot is published after Stop returns. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	e.sched.Cancel(e.ticket)
	e.active = false

	slog.Info("scope engine stopped",
		"ticks", e.ticks,
		"real", e.realTicks,
		"synthetic", e.synthTicks,
	)
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineStats{
		Active:         e.active,
		Ticks:          e.ticks,
		RealTicks:      e.realTicks,
		SyntheticTicks: e.synthTicks,
		ReadFailures:   e.readFailures,
	}
}

// tick runs one analysis pass and requests the next tick. The whole pass
// holds the engine lock: Stop racing a tick either cancels it before it
// runs (the active check) or waits for it to complete, so publishes
// never trail a Stop.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		// Cancelled between fire and execution
		return
	}

	snap := e.observe()
	snap.Timestamp = time.Now()
	snap.SourceStream = e.cfg.SourceStream

	e.ticks++
	e.bus.Publish(snap)
	e.ticket = e.sched.ScheduleNext(e.tick)
}

// observe makes the per-tick real-vs-synthetic decision and produces a
// complete snapshot either way. Capture errors are recovered here,
// silently, for this tick only. "Retry" is simply the next tick.
func (e *Engine) observe() *types.HistogramSnapshot {
	err := e.buf.Capture(e.src)
	if err == nil {
		e.realTicks++
		return Normalize(e.comp.Compute(e.buf))
	}

	if errors.Is(err, source.ErrReadFailed) {
		e.readFailures++
		slog.Debug("scope: frame read failed, using synthetic data", "error", err)
	}

	e.synthTicks++
	e.offset += OffsetStep
	return e.synth.Generate(e.offset)
}
