package emitter

import (
	"encoding/json"
	"time"

	"github.com/e7canasta/orion-scope/internal/types"
)

// SnapshotPayload is the wire shape for a published histogram snapshot.
// Channel bins stay normalized [0,1]; luma columns keep the 0-255 scale.
type SnapshotPayload struct {
	InstanceID string    `json:"instance_id"`
	Source     string    `json:"source"`
	Seq        uint64    `json:"seq"`
	Timestamp  time.Time `json:"ts"`
	Synthetic  bool      `json:"synthetic"`
	R          []float64 `json:"r"`
	G          []float64 `json:"g"`
	B          []float64 `json:"b"`
	Luma       []float64 `json:"luma"`
}

// NewSnapshotPayload builds the payload for a snapshot. Slices are shared
// with the snapshot, which is immutable after publish.
func NewSnapshotPayload(instanceID string, snap *types.HistogramSnapshot) SnapshotPayload {
	return SnapshotPayload{
		InstanceID: instanceID,
		Source:     snap.SourceStream,
		Seq:        snap.Seq,
		Timestamp:  snap.Timestamp,
		Synthetic:  snap.Synthetic,
		R:          snap.R,
		G:          snap.G,
		B:          snap.B,
		Luma:       snap.Luma,
	}
}

// ToJSON serializes the payload
func (p SnapshotPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
