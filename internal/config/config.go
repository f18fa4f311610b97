package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete scope service configuration
type Config struct {
	InstanceID       string       `yaml:"instance_id"`
	ShutdownTimeoutS int          `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Source           SourceConfig `yaml:"source"`
	Scope            ScopeConfig  `yaml:"scope"`
	MQTT             MQTTConfig   `yaml:"mqtt"`
	Export           ExportConfig `yaml:"export"`
}

// SourceConfig selects and configures the frame source
type SourceConfig struct {
	Kind    string  `yaml:"kind"`    // mock, gst
	URI     string  `yaml:"uri"`     // rtsp://... or "test" (videotestsrc) for gst
	Width   int     `yaml:"width"`   // source frame width
	Height  int     `yaml:"height"`  // source frame height
	FPS     float64 `yaml:"fps"`     // target frames per second
	Pattern string  `yaml:"pattern"` // mock pattern: bars, gradient
	Stream  string  `yaml:"stream"`  // stream label carried on frames/snapshots
}

// ScopeConfig contains analysis engine settings
type ScopeConfig struct {
	BufferWidth  int     `yaml:"buffer_width"`  // downsample buffer width (default: 160)
	BufferHeight int     `yaml:"buffer_height"` // downsample buffer height (default: 90)
	WaveColumns  int     `yaml:"wave_columns"`  // luma waveform columns (default: 50)
	TickHz       float64 `yaml:"tick_hz"`       // headless tick rate (default: 30)
}

// MQTTConfig contains MQTT broker settings.
// An empty broker disables remote snapshot publishing.
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	Topic          string `yaml:"topic"`
	QoS            byte   `yaml:"qos"`
	EmitIntervalMS int    `yaml:"emit_interval_ms"` // minimum ms between publishes (default: 500)
}

// ExportConfig controls periodic snapshot chart export.
// EverySeconds <= 0 disables export.
type ExportConfig struct {
	Dir          string `yaml:"dir"`
	Format       string `yaml:"format"`  // png, jpeg, webp
	Quality      int    `yaml:"quality"` // jpeg/webp quality 1-100
	EverySeconds int    `yaml:"every_s"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
