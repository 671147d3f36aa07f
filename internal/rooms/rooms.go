// internal/rooms/rooms.go
package rooms

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is a single user's live WebSocket presence. The write pump owns
// the receiving side of Out and is the only reader.
type Session struct {
	UserID uuid.UUID

	// LobbyID is the lobby this session has joined, or 0 before the first
	// join. Set by the WS handler so a dropped connection can be cleaned up.
	LobbyID int64

	Out chan interface{}
}

// Send pushes a message onto the session's Out channel non-blockingly.
// Logs and drops if the channel is full or closed.
func (s *Session) Send(msg interface{}) {
	select {
	case s.Out <- msg:
	default:
		logrus.Warnf("session %s: out channel full or closed, dropping message", s.UserID)
	}
}

// Registry tracks which sessions are subscribed to which lobby. All methods
// are safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	rooms map[int64]map[*Session]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[int64]map[*Session]struct{}),
	}
}

// Add subscribes a session to a lobby's broadcasts.
func (r *Registry) Add(lobbyID int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[lobbyID]
	if !ok {
		room = make(map[*Session]struct{})
		r.rooms[lobbyID] = room
	}
	room[s] = struct{}{}
}

// Remove unsubscribes a session. Empty rooms are dropped from the map.
func (r *Registry) Remove(lobbyID int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[lobbyID]
	if !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(r.rooms, lobbyID)
	}
}

// Broadcast sends msg to every session subscribed to the lobby. Sends are
// non-blocking; a slow consumer loses the message rather than stalling the
// rest of the room.
func (r *Registry) Broadcast(lobbyID int64, msg interface{}) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.rooms[lobbyID]))
	for s := range r.rooms[lobbyID] {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Send(msg)
	}
}

// SendTo sends msg to every session a specific user has open in the lobby.
func (r *Registry) SendTo(lobbyID int64, userID uuid.UUID, msg interface{}) {
	r.mu.Lock()
	sessions := make([]*Session, 0, 1)
	for s := range r.rooms[lobbyID] {
		if s.UserID == userID {
			sessions = append(sessions, s)
		}
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Send(msg)
	}
}

// Count reports how many sessions are subscribed to the lobby.
func (r *Registry) Count(lobbyID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[lobbyID])
}
