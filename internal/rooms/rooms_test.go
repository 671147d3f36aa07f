// internal/rooms/rooms_test.go
package rooms

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return &Session{
		UserID: uuid.New(),
		Out:    make(chan interface{}, 8),
	}
}

func TestRegistryAddRemoveCount(t *testing.T) {
	r := NewRegistry()
	s1 := newTestSession()
	s2 := newTestSession()

	assert.Equal(t, 0, r.Count(42))

	r.Add(42, s1)
	r.Add(42, s2)
	assert.Equal(t, 2, r.Count(42))

	// Double add is idempotent.
	r.Add(42, s1)
	assert.Equal(t, 2, r.Count(42))

	r.Remove(42, s1)
	assert.Equal(t, 1, r.Count(42))

	r.Remove(42, s2)
	assert.Equal(t, 0, r.Count(42))

	// Removing from an empty or unknown room must not panic.
	r.Remove(42, s1)
	r.Remove(99, s1)
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	r := NewRegistry()
	in := newTestSession()
	other := newTestSession()
	r.Add(1, in)
	r.Add(2, other)

	r.Broadcast(1, "hello")

	select {
	case msg := <-in.Out:
		assert.Equal(t, "hello", msg)
	default:
		t.Fatal("expected a message for the room member")
	}

	select {
	case msg := <-other.Out:
		t.Fatalf("unexpected message for other room: %v", msg)
	default:
	}
}

func TestSendToTargetsOneUser(t *testing.T) {
	r := NewRegistry()
	target := newTestSession()
	bystander := newTestSession()
	r.Add(7, target)
	r.Add(7, bystander)

	r.SendTo(7, target.UserID, "just you")

	select {
	case msg := <-target.Out:
		assert.Equal(t, "just you", msg)
	default:
		t.Fatal("expected a message for the target user")
	}
	assert.Empty(t, bystander.Out)
}

func TestSendDropsWhenChannelFull(t *testing.T) {
	s := &Session{UserID: uuid.New(), Out: make(chan interface{}, 1)}
	s.Send("first")
	// Full channel: the second send must not block.
	done := make(chan struct{})
	go func() {
		s.Send("second")
		close(done)
	}()
	<-done

	require.Len(t, s.Out, 1)
	assert.Equal(t, "first", <-s.Out)
}
