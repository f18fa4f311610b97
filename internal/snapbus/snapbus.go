// Package snapbus distributes HistogramSnapshots to consumers with
// latest-wins mailbox semantics.
//
// Philosophy: "Drop snapshots, never queue. Latency > Completeness."
// A renderer that fell behind wants the newest snapshot, not a backlog.
//
// Design:
//   - Non-blocking Publish (single-slot mailbox per subscriber,
//     overwrite on publish, drop tracking)
//   - Blocking Subscribe readFunc with sync.Cond (no busy-wait)
//   - Latest() non-blocking peek for pull-based render loops
//
// Unlike a frame pipeline there is no distribution goroutine: Publish is
// called by the engine's single active tick and fans out to the handful
// of subscriber slots inline (a few µs for 2-3 consumers).
package snapbus

import (
	"sync"
	"time"

	"github.com/e7canasta/orion-scope/internal/types"
)

// SubscriberStats tracks per-subscriber delivery state.
type SubscriberStats struct {
	// SubscriberID is the unique identifier for this subscriber.
	SubscriberID string

	// LastConsumedSeq is the Seq of the last consumed snapshot.
	LastConsumedSeq uint64

	// LastConsumedAt is the timestamp of the last successful consume.
	LastConsumedAt time.Time

	// ConsecutiveDrops is the current streak of unconsumed snapshots.
	// Resets to 0 on successful consume.
	ConsecutiveDrops uint64

	// TotalDrops is the lifetime count of overwritten snapshots.
	TotalDrops uint64
}

// BusStats is a snapshot of bus operational state.
type BusStats struct {
	// Published is the total number of snapshots published.
	Published uint64

	// Subscribers maps subscriberID to per-subscriber statistics.
	Subscribers map[string]SubscriberStats
}

// slot is a per-subscriber single-slot mailbox.
type slot struct {
	mu   sync.Mutex
	cond *sync.Cond
	snap *types.HistogramSnapshot // nil = consumed, non-nil = unconsumed

	lastConsumedSeq  uint64
	lastConsumedAt   time.Time
	consecutiveDrops uint64
	totalDrops       uint64

	closed bool // set by Unsubscribe/Close, signals readFunc to return nil
}

func newSlot() *slot {
	sl := &slot{lastConsumedAt: time.Now()}
	sl.cond = sync.NewCond(&sl.mu)
	return sl
}
