// internal/game/timers.go
package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimers owns the per-lobby countdown machinery: a repeating tick during
// PLAYING and a one-shot pause during REVEALING. The clock is injected so
// tests can drive time deterministically.
//
// Starting a timer replaces any previous timer of the same kind for that
// lobby. A replaced or stopped timer never runs its callback again, even if
// it had already fired and was waiting on the mutex.
type RoundTimers struct {
	clock clockwork.Clock

	mu     sync.Mutex
	ticks  map[int64]*timerHandle
	pauses map[int64]*timerHandle
}

type timerHandle struct {
	stop chan struct{}
}

// NewRoundTimers creates an empty timer set on the given clock.
func NewRoundTimers(clock clockwork.Clock) *RoundTimers {
	return &RoundTimers{
		clock:  clock,
		ticks:  make(map[int64]*timerHandle),
		pauses: make(map[int64]*timerHandle),
	}
}

// StartTick begins calling fn every interval until the tick is stopped or
// replaced. fn runs on the timer goroutine, never under the RoundTimers lock.
func (t *RoundTimers) StartTick(lobbyID int64, interval time.Duration, fn func()) {
	h := &timerHandle{stop: make(chan struct{})}

	t.mu.Lock()
	if prev, ok := t.ticks[lobbyID]; ok {
		close(prev.stop)
	}
	t.ticks[lobbyID] = h
	t.mu.Unlock()

	go func() {
		ticker := t.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.Chan():
				if !t.current(t.ticks, lobbyID, h) {
					return
				}
				fn()
			}
		}
	}()
}

// StartPause schedules fn to run once after d, replacing any pending pause
// for the lobby.
func (t *RoundTimers) StartPause(lobbyID int64, d time.Duration, fn func()) {
	h := &timerHandle{stop: make(chan struct{})}

	t.mu.Lock()
	if prev, ok := t.pauses[lobbyID]; ok {
		close(prev.stop)
	}
	t.pauses[lobbyID] = h
	t.mu.Unlock()

	go func() {
		timer := t.clock.NewTimer(d)
		defer timer.Stop()
		select {
		case <-h.stop:
			return
		case <-timer.Chan():
		}

		t.mu.Lock()
		if t.pauses[lobbyID] != h {
			t.mu.Unlock()
			return
		}
		delete(t.pauses, lobbyID)
		t.mu.Unlock()

		fn()
	}()
}

// StopTick cancels the lobby's repeating tick, if any.
func (t *RoundTimers) StopTick(lobbyID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.ticks[lobbyID]; ok {
		close(h.stop)
		delete(t.ticks, lobbyID)
	}
}

// StopPause cancels the lobby's pending pause, if any.
func (t *RoundTimers) StopPause(lobbyID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.pauses[lobbyID]; ok {
		close(h.stop)
		delete(t.pauses, lobbyID)
	}
}

// StopAll cancels both timers for the lobby. Called when a lobby empties out
// or a game is restarted.
func (t *RoundTimers) StopAll(lobbyID int64) {
	t.StopTick(lobbyID)
	t.StopPause(lobbyID)
}

// current reports whether h is still the registered handle for lobbyID. A
// stale handle means the timer was replaced while this fire was in flight.
func (t *RoundTimers) current(m map[int64]*timerHandle, lobbyID int64, h *timerHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return m[lobbyID] == h
}
