// internal/game/timers_test.go
package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickFiresEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var fires atomic.Int32
	rt.StartTick(1, time.Second, func() { fires.Add(1) })
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fires.Load() == 2 }, time.Second, time.Millisecond)
}

func TestStopTickHaltsFiring(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var fires atomic.Int32
	rt.StartTick(1, time.Second, func() { fires.Add(1) })
	clock.BlockUntil(1)

	rt.StopTick(1)
	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
}

func TestStartTickReplacesPrevious(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var old, fresh atomic.Int32
	rt.StartTick(1, time.Second, func() { old.Add(1) })
	clock.BlockUntil(1)
	rt.StartTick(1, time.Second, func() { fresh.Add(1) })

	// The replacement ticker registers asynchronously, so advance in steps
	// until it fires. The replaced callback must never run.
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return fresh.Load() >= 1
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(0), old.Load())
}

func TestPauseFiresOnceAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var fires atomic.Int32
	rt.StartPause(1, 10*time.Second, func() { fires.Add(1) })
	clock.BlockUntil(1)

	clock.Advance(9 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, time.Millisecond)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
}

func TestStopPauseCancels(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var fires atomic.Int32
	rt.StartPause(1, time.Second, func() { fires.Add(1) })
	clock.BlockUntil(1)

	rt.StopPause(1)
	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
}

func TestStopAllIsPerLobby(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rt := NewRoundTimers(clock)

	var lobby1, lobby2 atomic.Int32
	rt.StartTick(1, time.Second, func() { lobby1.Add(1) })
	rt.StartPause(2, time.Second, func() { lobby2.Add(1) })
	clock.BlockUntil(2)

	rt.StopAll(1)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return lobby2.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), lobby1.Load())
}
