// Package emitter publishes histogram snapshots to an MQTT broker.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/orion-scope/internal/config"
	"github.com/e7canasta/orion-scope/internal/types"
)

// MQTTEmitter publishes snapshots to an MQTT broker
type MQTTEmitter struct {
	cfg        config.MQTTConfig
	instanceID string
	Client     mqtt.Client // Exported for health probes

	mu        sync.RWMutex
	published uint64
	skipped   uint64 // rate-limited
	errors    uint64
	connected bool
}

// NewMQTTEmitter creates a new MQTT emitter
func NewMQTTEmitter(cfg config.MQTTConfig, instanceID string) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:        cfg,
		instanceID: instanceID,
	}
}

// Connect establishes connection to the MQTT broker
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.Broker))
	opts.SetClientID(e.instanceID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	// Connection handlers
	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		slog.Info("mqtt connection established",
			"broker", e.cfg.Broker,
			"client_id", e.instanceID,
			"auto_reconnect", "enabled")
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", e.cfg.Broker,
			"max_retry_interval", "30s")
	}

	e.Client = mqtt.NewClient(opts)

	slog.Info("connecting to mqtt broker", "broker", e.cfg.Broker)

	token := e.Client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()

	return nil
}

// Run consumes snapshots from read until it returns nil or the context
// is cancelled. Publishes are rate-limited to one per EmitIntervalMS;
// snapshots arriving faster than that are skipped, never queued.
func (e *MQTTEmitter) Run(ctx context.Context, read func() *types.HistogramSnapshot) {
	interval := time.Duration(e.cfg.EmitIntervalMS) * time.Millisecond
	var lastEmit time.Time

	for {
		snap := read()
		if snap == nil {
			slog.Info("emitter loop stopped, snapshot feed closed")
			return
		}
		if ctx.Err() != nil {
			return
		}

		if time.Since(lastEmit) < interval {
			e.mu.Lock()
			e.skipped++
			e.mu.Unlock()
			continue
		}

		if err := e.Publish(snap); err != nil {
			slog.Warn("snapshot publish failed", "seq", snap.Seq, "error", err)
			continue
		}
		lastEmit = time.Now()
	}
}

// Publish publishes a single snapshot to the configured topic
func (e *MQTTEmitter) Publish(snap *types.HistogramSnapshot) error {
	if !e.isConnected() {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := NewSnapshotPayload(e.instanceID, snap).ToJSON()
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	token := e.Client.Publish(e.cfg.Topic, e.cfg.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()

	slog.Debug("snapshot published",
		"topic", e.cfg.Topic,
		"seq", snap.Seq,
		"synthetic", snap.Synthetic,
		"size", len(payload),
	)

	return nil
}

// Disconnect closes the MQTT connection
func (e *MQTTEmitter) Disconnect() error {
	if e.Client != nil && e.Client.IsConnected() {
		e.Client.Disconnect(250) // 250ms grace period
		slog.Info("mqtt disconnected")
	}

	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()

	return nil
}

// Stats returns emitter statistics
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Stats{
		Connected: e.connected,
		Published: e.published,
		Skipped:   e.skipped,
		Errors:    e.errors,
	}
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool
	Published uint64
	Skipped   uint64
	Errors    uint64
}

// isConnected returns connection status
func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}
