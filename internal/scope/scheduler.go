package scope

import (
	"fmt"
	"sync"
	"time"
)

// Ticket identifies a pending scheduled tick so it can be cancelled.
type Ticket uint64

// TickScheduler is the display-synchronized scheduling primitive the
// engine depends on. At most one tick is pending at a time: scheduling
// replaces any previously pending callback, and a tick is never invoked
// while a previous tick's callback is still executing (request/cancel
// single-pending-tick discipline, not a fixed-rate timer that queues).
//
// Implementations: TickerScheduler (headless, paced by a time.Ticker)
// and ManualScheduler (tests and external render loops drive Fire).
type TickScheduler interface {
	// ScheduleNext registers fn to run on the next tick, replacing any
	// pending callback, and returns a ticket for cancellation.
	ScheduleNext(fn func()) Ticket

	// Cancel drops the pending callback if ticket still identifies it.
	// Cancelling a stale or already-fired ticket is a no-op.
	Cancel(ticket Ticket)
}

// TickerScheduler paces ticks with a fixed-rate ticker, the headless
// stand-in for a display-refresh callback. The pending callback runs on
// the scheduler goroutine, so ticks never overlap by construction.
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending func()
	ticket  Ticket

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewTickerScheduler creates a scheduler firing at the given rate.
func NewTickerScheduler(hz float64) (*TickerScheduler, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("scope: scheduler rate must be > 0, got %g", hz)
	}
	return &TickerScheduler{
		interval: time.Duration(float64(time.Second) / hz),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start launches the scheduler goroutine.
func (s *TickerScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scope: scheduler already started")
	}
	s.started = true

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop halts the scheduler and waits for the loop to exit. Idempotent.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.pending = nil
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// ScheduleNext implements TickScheduler.
func (s *TickerScheduler) ScheduleNext(fn func()) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	s.pending = fn
	return s.ticket
}

// Cancel implements TickScheduler.
func (s *TickerScheduler) Cancel(ticket Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket == s.ticket {
		s.pending = nil
	}
}

func (s *TickerScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// Take the pending callback before running it: the callback
			// typically re-schedules itself, and must not be invoked
			// again until the next ticker interval.
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()

			if fn != nil {
				fn()
			}
		}
	}
}

// ManualScheduler lets a caller drive ticks explicitly: tests call Fire
// to simulate a display refresh, and render loops call it once per frame.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func()
	ticket  Ticket
}

// NewManualScheduler creates an externally driven scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// ScheduleNext implements TickScheduler.
func (m *ManualScheduler) ScheduleNext(fn func()) Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket++
	m.pending = fn
	return m.ticket
}

// Cancel implements TickScheduler.
func (m *ManualScheduler) Cancel(ticket Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket == m.ticket {
		m.pending = nil
	}
}

// Fire runs the pending callback, if any, and reports whether one ran.
func (m *ManualScheduler) Fire() bool {
	m.mu.Lock()
	fn := m.pending
	m.pending = nil
	m.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// HasPending reports whether a callback is waiting for the next tick.
func (m *ManualScheduler) HasPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}
