package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/orion-scope/internal/types"
)

// GstConfig configures a GStreamer-backed frame source.
type GstConfig struct {
	// URI is either an rtsp:// URL or "test" for videotestsrc.
	URI string
	// Width, Height is the output resolution (scaled by the pipeline).
	Width  int
	Height int
	// TargetFPS is the frame rate requested via videorate/capsfilter.
	TargetFPS float64
	// Stream is the label carried on emitted frames.
	Stream string
}

// GstStream acquires frames through a GStreamer pipeline and keeps only
// the latest one (single-slot mailbox, overwrite on arrival).
//
// Pipelines (software decode only; the engine has no use for more):
//
//	test: videotestsrc is-live=true → videoconvert → videoscale →
//	      videorate → capsfilter(RGB,WxH,fps) → appsink
//	rtsp: rtspsrc → rtph264depay → avdec_h264 → videoconvert →
//	      videoscale → videorate → capsfilter(RGB,WxH,fps) → appsink
//
// The appsink callback copies the sample bytes (GStreamer reuses its
// buffers) and overwrites the mailbox. Ready() reports false until the
// first frame arrives and after a pipeline error, which pushes the
// analysis engine into synthetic mode for those ticks.
type GstStream struct {
	cfg GstConfig

	pipeline *gst.Pipeline
	sink     *app.Sink

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu        sync.RWMutex
	latest    *types.Frame
	isRunning bool
	connected bool
	startTime time.Time

	seq       uint64 // atomic
	frames    uint64 // atomic
	errsTotal uint64 // atomic
}

// NewGstStream validates the configuration and creates the source.
// The pipeline is built lazily in Start.
func NewGstStream(cfg GstConfig) (*GstStream, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("gst: uri is required (rtsp://... or \"test\")")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("gst: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TargetFPS <= 0 {
		return nil, fmt.Errorf("gst: target fps must be > 0, got %g", cfg.TargetFPS)
	}
	if cfg.Stream == "" {
		cfg.Stream = "gst"
	}
	return &GstStream{cfg: cfg, stopCh: make(chan struct{})}, nil
}

// Start builds the pipeline, sets it to PLAYING and begins monitoring
// the pipeline bus.
func (s *GstStream) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("gst: stream already running")
	}
	s.isRunning = true
	s.startTime = time.Now()
	s.mu.Unlock()

	gst.Init(nil)

	if err := s.buildPipeline(); err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}

	if err := s.pipeline.SetState(gst.StatePlaying); err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return fmt.Errorf("gst: failed to start pipeline: %w", err)
	}

	s.wg.Add(1)
	go s.monitorBus(ctx)

	slog.Info("gst stream started",
		"uri", s.cfg.URI,
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"target_fps", s.cfg.TargetFPS,
	)

	return nil
}

// Stop tears the pipeline down. Idempotent.
func (s *GstStream) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.connected = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	if s.pipeline != nil {
		if err := s.pipeline.SetState(gst.StateNull); err != nil {
			return fmt.Errorf("gst: failed to set pipeline to NULL: %w", err)
		}
	}

	slog.Info("gst stream stopped",
		"frames", atomic.LoadUint64(&s.frames),
		"errors", atomic.LoadUint64(&s.errsTotal),
	)

	return nil
}

// Ready reports whether a decodable frame is available.
func (s *GstStream) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning && s.connected && s.latest != nil
}

// Frame returns the latest frame from the mailbox.
func (s *GstStream) Frame() (*types.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || !s.connected || s.latest == nil {
		return nil, ErrUnavailable
	}
	return s.latest, nil
}

// Stats returns a snapshot of source statistics.
func (s *GstStream) Stats() types.SourceStats {
	s.mu.RLock()
	running := s.isRunning
	connected := s.connected
	started := s.startTime
	s.mu.RUnlock()

	frames := atomic.LoadUint64(&s.frames)
	var fpsReal float64
	if running && frames > 0 {
		if elapsed := time.Since(started).Seconds(); elapsed > 0 {
			fpsReal = float64(frames) / elapsed
		}
	}

	return types.SourceStats{
		FrameCount:   frames,
		FPSTarget:    s.cfg.TargetFPS,
		FPSReal:      fpsReal,
		Resolution:   fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		SourceStream: s.cfg.Stream,
		IsLive:       running && connected,
		Errors:       atomic.LoadUint64(&s.errsTotal),
	}
}

// buildPipeline constructs and links the GStreamer elements.
func (s *GstStream) buildPipeline() error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("gst: failed to create pipeline: %w", err)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("gst: failed to create videoconvert: %w", err)
	}
	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("gst: failed to create videoscale: %w", err)
	}
	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return fmt.Errorf("gst: failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)     // Only drop frames, never duplicate
	videorate.SetProperty("skip-to-first", true) // Skip to first frame on start

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("gst: failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(buildRGBCaps(s.cfg.Width, s.cfg.Height, s.cfg.TargetFPS)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("gst: failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // No sync with clock (real-time)
	appsink.SetProperty("max-buffers", 1) // Keep only latest frame
	appsink.SetProperty("drop", true)     // Drop old frames

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if s.cfg.URI == "test" {
		src, err := gst.NewElement("videotestsrc")
		if err != nil {
			return fmt.Errorf("gst: failed to create videotestsrc: %w", err)
		}
		src.SetProperty("is-live", true)

		pipeline.AddMany(src, converter, scaler, videorate, capsfilter, appsink.Element)
		if err := gst.ElementLinkMany(src, converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
			return fmt.Errorf("gst: failed to link test pipeline: %w", err)
		}
	} else {
		rtspsrc, err := gst.NewElement("rtspsrc")
		if err != nil {
			return fmt.Errorf("gst: failed to create rtspsrc: %w", err)
		}
		rtspsrc.SetProperty("location", s.cfg.URI)
		rtspsrc.SetProperty("protocols", 4) // TCP only
		rtspsrc.SetProperty("latency", 200)

		depay, err := gst.NewElement("rtph264depay")
		if err != nil {
			return fmt.Errorf("gst: failed to create rtph264depay: %w", err)
		}
		decoder, err := gst.NewElement("avdec_h264")
		if err != nil {
			return fmt.Errorf("gst: failed to create avdec_h264: %w", err)
		}
		decoder.SetProperty("max-threads", 0) // 0 = auto-detect cores
		decoder.SetProperty("output-corrupt", false)

		pipeline.AddMany(rtspsrc, depay, decoder, converter, scaler, videorate, capsfilter, appsink.Element)

		// rtspsrc has dynamic pads, linked in the pad-added callback
		if err := gst.ElementLinkMany(depay, decoder, converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
			return fmt.Errorf("gst: failed to link rtsp pipeline: %w", err)
		}

		rtspsrc.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
			sinkPad := depay.GetStaticPad("sink")
			if sinkPad == nil {
				slog.Error("gst: failed to get sink pad from rtph264depay")
				return
			}
			if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
				slog.Error("gst: failed to link rtspsrc pad", "pad", srcPad.GetName(), "ret", ret)
			}
		})
	}

	s.pipeline = pipeline
	s.sink = appsink
	return nil
}

// onNewSample copies the appsink sample into the latest-frame mailbox.
//
// A single corrupted sample should not kill the stream, so every failure
// path returns FlowOK and skips the frame.
func (s *GstStream) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gst: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gst: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("gst: empty buffer received")
		return gst.FlowOK
	}

	// Copy frame data (GStreamer will reuse the buffer)
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	seq := atomic.AddUint64(&s.seq, 1)
	atomic.AddUint64(&s.frames, 1)

	frame := &types.Frame{
		Seq:          seq,
		Timestamp:    time.Now(),
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		Data:         frameData,
		SourceStream: s.cfg.Stream,
		TraceID:      uuid.New().String(),
	}

	s.mu.Lock()
	s.latest = frame
	s.connected = true
	s.mu.Unlock()

	return gst.FlowOK
}

// monitorBus watches the pipeline bus for errors and EOS.
//
// There is no reconnection here: the engine re-attempts capture every
// tick anyway, so a recovered pipeline resumes real sampling on the next
// tick without any mode reset.
func (s *GstStream) monitorBus(ctx context.Context) {
	defer s.wg.Done()

	bus := s.pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			atomic.AddUint64(&s.errsTotal, 1)
			s.mu.Lock()
			s.connected = false
			s.mu.Unlock()
			slog.Error("gst: pipeline error",
				"category", classifyGstError(gerr).String(),
				"error", gerr.Error(),
			)
		case gst.MessageEOS:
			s.mu.Lock()
			s.connected = false
			s.mu.Unlock()
			slog.Info("gst: end of stream")
		}
	}
}

// buildRGBCaps builds a caps string with RGB format and framerate.
//
// Handles fractional framerates: fps < 1.0 becomes 1/(1/fps).
func buildRGBCaps(width, height int, fps float64) string {
	numerator := 1
	denominator := 1
	if fps < 1.0 {
		denominator = int(1.0 / fps)
	} else {
		numerator = int(fps)
	}
	return fmt.Sprintf(
		"video/x-raw,format=RGB,width=%d,height=%d,framerate=%d/%d",
		width, height, numerator, denominator,
	)
}
