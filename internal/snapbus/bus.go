package snapbus

import (
	"sync"
	"time"

	"github.com/e7canasta/orion-scope/internal/types"
)

// Bus distributes snapshots to subscribers and retains the latest one.
//
// Thread-safety: all methods are safe for concurrent use. There is
// typically one publisher (the engine tick) and a small number of
// subscribers (renderer, MQTT emitter, exporter).
type Bus struct {
	mu     sync.Mutex
	slots  map[string]*slot
	latest *types.HistogramSnapshot
	seq    uint64
	closed bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{slots: make(map[string]*slot)}
}

// Publish assigns the next sequence number to snap, stores it as the
// latest snapshot and fans it out to every subscriber mailbox
// (overwrite semantics, non-blocking).
//
// Contract: snap must not be modified after Publish. It is shared by
// reference with every consumer.
func (b *Bus) Publish(snap *types.HistogramSnapshot) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	snap.Seq = b.seq
	b.latest = snap

	// Snapshot the slot set so fan-out runs without the bus lock
	slots := make([]*slot, 0, len(b.slots))
	for _, sl := range b.slots {
		slots = append(slots, sl)
	}
	b.mu.Unlock()

	for _, sl := range slots {
		publishToSlot(sl, snap)
	}
}

// publishToSlot overwrites the slot mailbox and wakes the subscriber.
func publishToSlot(sl *slot, snap *types.HistogramSnapshot) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.closed {
		return
	}

	// Previous snapshot unconsumed: subscriber slow, track the drop
	if sl.snap != nil {
		sl.consecutiveDrops++
		sl.totalDrops++
	}

	sl.snap = snap
	sl.cond.Signal()
}

// Latest returns the most recently published snapshot, or nil before the
// first publish. Non-blocking; intended for pull-based render loops.
func (b *Bus) Latest() *types.HistogramSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Subscribe registers a subscriber and returns a blocking read function.
//
// The returned function blocks until a snapshot is available and returns
// nil on shutdown (Unsubscribe or Close). It must be called from a
// single goroutine.
//
// Example:
//
//	read := bus.Subscribe("mqtt-emitter")
//	defer bus.Unsubscribe("mqtt-emitter")
//	for {
//	    snap := read()
//	    if snap == nil { break }
//	    emit(snap)
//	}
func (b *Bus) Subscribe(id string) func() *types.HistogramSnapshot {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() *types.HistogramSnapshot { return nil }
	}
	sl := newSlot()
	b.slots[id] = sl
	b.mu.Unlock()

	return func() *types.HistogramSnapshot {
		sl.mu.Lock()
		defer sl.mu.Unlock()

		for sl.snap == nil && !sl.closed {
			sl.cond.Wait()
		}
		if sl.closed {
			return nil
		}

		snap := sl.snap
		sl.snap = nil
		sl.lastConsumedSeq = snap.Seq
		sl.lastConsumedAt = time.Now()
		sl.consecutiveDrops = 0
		return snap
	}
}

// Unsubscribe removes a subscriber and wakes its readFunc (returns nil).
// Idempotent.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	sl, ok := b.slots[id]
	if ok {
		delete(b.slots, id)
	}
	b.mu.Unlock()

	if !ok {
		return
	}
	closeSlot(sl)
}

// Close shuts the bus down: all subscriber readFuncs return nil and
// further Publish calls become no-ops. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	slots := make([]*slot, 0, len(b.slots))
	for _, sl := range b.slots {
		slots = append(slots, sl)
	}
	b.slots = make(map[string]*slot)
	b.mu.Unlock()

	for _, sl := range slots {
		closeSlot(sl)
	}
}

func closeSlot(sl *slot) {
	sl.mu.Lock()
	sl.closed = true
	sl.cond.Signal()
	sl.mu.Unlock()
}

// Stats returns a non-blocking snapshot of bus statistics.
func (b *Bus) Stats() BusStats {
	b.mu.Lock()
	published := b.seq
	slots := make(map[string]*slot, len(b.slots))
	for id, sl := range b.slots {
		slots[id] = sl
	}
	b.mu.Unlock()

	subs := make(map[string]SubscriberStats, len(slots))
	for id, sl := range slots {
		sl.mu.Lock()
		subs[id] = SubscriberStats{
			SubscriberID:     id,
			LastConsumedSeq:  sl.lastConsumedSeq,
			LastConsumedAt:   sl.lastConsumedAt,
			ConsecutiveDrops: sl.consecutiveDrops,
			TotalDrops:       sl.totalDrops,
		}
		sl.mu.Unlock()
	}

	return BusStats{Published: published, Subscribers: subs}
}
