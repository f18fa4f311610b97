package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5 // default
	}

	if err := validateSource(&cfg.Source); err != nil {
		return fmt.Errorf("source validation failed: %w", err)
	}

	if err := validateScope(&cfg.Scope); err != nil {
		return fmt.Errorf("scope validation failed: %w", err)
	}

	// MQTT is optional: empty broker disables the emitter
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = fmt.Sprintf("scope/histogram/%s", cfg.InstanceID)
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
		if cfg.MQTT.EmitIntervalMS <= 0 {
			cfg.MQTT.EmitIntervalMS = 500 // default
		}
	}

	// Export is optional: every_s <= 0 disables it
	if cfg.Export.EverySeconds > 0 {
		if cfg.Export.Dir == "" {
			return fmt.Errorf("export.dir is required when export.every_s is set")
		}
		switch cfg.Export.Format {
		case "":
			cfg.Export.Format = "png"
		case "png", "jpeg", "webp":
		default:
			return fmt.Errorf("export.format must be png, jpeg or webp, got %q", cfg.Export.Format)
		}
		if cfg.Export.Quality <= 0 || cfg.Export.Quality > 100 {
			cfg.Export.Quality = 85 // default
		}
	}

	return nil
}

func validateSource(src *SourceConfig) error {
	switch src.Kind {
	case "":
		src.Kind = "mock"
	case "mock", "gst":
	default:
		return fmt.Errorf("kind must be mock or gst, got %q", src.Kind)
	}

	if src.Kind == "gst" && src.URI == "" {
		return fmt.Errorf("uri is required for gst source (rtsp://... or \"test\")")
	}

	if src.Width <= 0 {
		src.Width = 640
	}
	if src.Height <= 0 {
		src.Height = 360
	}
	if src.FPS <= 0 {
		src.FPS = 15
	}
	if src.FPS > 60 {
		return fmt.Errorf("fps must be <= 60, got %g", src.FPS)
	}

	switch src.Pattern {
	case "":
		src.Pattern = "gradient"
	case "bars", "gradient":
	default:
		return fmt.Errorf("pattern must be bars or gradient, got %q", src.Pattern)
	}

	if src.Stream == "" {
		src.Stream = src.Kind
	}

	return nil
}

func validateScope(sc *ScopeConfig) error {
	if sc.BufferWidth <= 0 {
		sc.BufferWidth = 160
	}
	if sc.BufferHeight <= 0 {
		sc.BufferHeight = 90
	}
	if sc.WaveColumns <= 0 {
		sc.WaveColumns = 50
	}
	if sc.WaveColumns > sc.BufferWidth {
		return fmt.Errorf("wave_columns (%d) must not exceed buffer_width (%d)",
			sc.WaveColumns, sc.BufferWidth)
	}
	if sc.TickHz <= 0 {
		sc.TickHz = 30
	}
	if sc.TickHz > 120 {
		return fmt.Errorf("tick_hz must be <= 120, got %g", sc.TickHz)
	}
	return nil
}
