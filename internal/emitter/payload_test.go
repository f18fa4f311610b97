package emitter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/e7canasta/orion-scope/internal/config"
	"github.com/e7canasta/orion-scope/internal/types"
)

func TestSnapshotPayloadRoundTrip(t *testing.T) {
	snap := types.NewHistogramSnapshot(4)
	snap.Seq = 42
	snap.Timestamp = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	snap.SourceStream = "cam-entrance"
	snap.Synthetic = true
	snap.R[255] = 1.0
	snap.Luma[0] = 128.5

	data, err := NewSnapshotPayload("scope-01", snap).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() failed: %v", err)
	}

	var decoded SnapshotPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.InstanceID != "scope-01" {
		t.Errorf("instance_id = %q", decoded.InstanceID)
	}
	if decoded.Seq != 42 || decoded.Source != "cam-entrance" || !decoded.Synthetic {
		t.Errorf("metadata mismatch: %+v", decoded)
	}
	if len(decoded.R) != types.Bins || decoded.R[255] != 1.0 {
		t.Error("channel bins not carried through")
	}
	if len(decoded.Luma) != 4 || decoded.Luma[0] != 128.5 {
		t.Error("luma columns not carried through")
	}
}

func TestPublishWithoutConnectionCountsError(t *testing.T) {
	e := NewMQTTEmitter(config.MQTTConfig{
		Broker: "localhost:1883",
		Topic:  "scope/histogram/test",
	}, "scope-test")

	if err := e.Publish(types.NewHistogramSnapshot(4)); err == nil {
		t.Error("Publish should fail while disconnected")
	}
	if got := e.Stats().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}
