package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scope.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
instance_id: scope-01
source:
  kind: mock
  width: 320
  height: 180
  fps: 10
scope:
  wave_columns: 40
mqtt:
  broker: localhost:1883
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.InstanceID != "scope-01" {
		t.Errorf("InstanceID = %q, want scope-01", cfg.InstanceID)
	}
	if cfg.Source.Width != 320 || cfg.Source.Height != 180 {
		t.Errorf("source resolution = %dx%d, want 320x180", cfg.Source.Width, cfg.Source.Height)
	}
	if cfg.Scope.WaveColumns != 40 {
		t.Errorf("WaveColumns = %d, want 40", cfg.Scope.WaveColumns)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
instance_id: scope-01
mqtt:
  broker: localhost:1883
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Scope.BufferWidth != 160 || cfg.Scope.BufferHeight != 90 {
		t.Errorf("buffer defaults = %dx%d, want 160x90", cfg.Scope.BufferWidth, cfg.Scope.BufferHeight)
	}
	if cfg.Scope.WaveColumns != 50 {
		t.Errorf("WaveColumns default = %d, want 50", cfg.Scope.WaveColumns)
	}
	if cfg.Scope.TickHz != 30 {
		t.Errorf("TickHz default = %g, want 30", cfg.Scope.TickHz)
	}
	if cfg.Source.Kind != "mock" {
		t.Errorf("source kind default = %q, want mock", cfg.Source.Kind)
	}
	if cfg.MQTT.Topic != "scope/histogram/scope-01" {
		t.Errorf("MQTT topic default = %q, want scope/histogram/scope-01", cfg.MQTT.Topic)
	}
	if cfg.MQTT.EmitIntervalMS != 500 {
		t.Errorf("EmitIntervalMS default = %d, want 500", cfg.MQTT.EmitIntervalMS)
	}
	if cfg.ShutdownTimeoutS != 5 {
		t.Errorf("ShutdownTimeoutS default = %d, want 5", cfg.ShutdownTimeoutS)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing instance_id", `
source:
  kind: mock
`},
		{"bad instance_id", `
instance_id: Scope_01
`},
		{"bad source kind", `
instance_id: scope-01
source:
  kind: webcam
`},
		{"gst without uri", `
instance_id: scope-01
source:
  kind: gst
`},
		{"wave columns exceed buffer width", `
instance_id: scope-01
scope:
  buffer_width: 32
  wave_columns: 64
`},
		{"export without dir", `
instance_id: scope-01
export:
  every_s: 10
`},
		{"bad export format", `
instance_id: scope-01
export:
  dir: /tmp/scope
  format: bmp
  every_s: 10
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("Load() accepted invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/scope.yaml"); err == nil {
		t.Error("Load() should fail on missing file")
	}
}
