// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mwrobel/moresongs/internal/game"
	"github.com/mwrobel/moresongs/internal/rooms"
)

// wsCommand is the envelope for every client-to-server message. Fields the
// command does not use are left zero. Client-supplied lobbyId/userId are
// ignored; the lobby comes from the URL and the user from the auth cookie.
type wsCommand struct {
	Type  string `json:"type"`
	Guess string `json:"guess"`
	// CorrectAnswer is sent by some clients alongside a guess. The server
	// recomputes the answer and never trusts this field.
	CorrectAnswer string `json:"correctAnswer"`
}

// LobbyWSHandler serves /lobby/ws/{lobbyID}. One connection per player per
// lobby; everything the player does in the lobby flows through here.
func LobbyWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/lobby/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing lobby_id", http.StatusBadRequest)
			return
		}
		lobbyID, ok := game.ParseLobbyID(pathParts[0])
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		userID, ok := s.authenticate(r)
		if !ok {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}

		lobby, err := s.Store.GetLobby(r.Context(), lobbyID)
		if err != nil {
			logger.Warnf("lobby %d lookup failed: %v", lobbyID, err)
			c.Close(websocket.StatusInternalError, "lobby lookup failed")
			return
		}
		if lobby == nil {
			c.Close(InvalidLobbyIDError, "lobby does not exist")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := &rooms.Session{
			UserID: userID,
			Out:    make(chan interface{}, 16),
		}

		logger.Infof("user %s (%s) connected to lobby %d", userID, r.RemoteAddr, lobbyID)

		go s.writePump(ctx, c, sess, logger)

		s.readPump(ctx, c, lobbyID, sess, logger)

		// Cleanup after the read pump exits. A session that joined is
		// unsubscribed and treated as having left the lobby.
		if sess.LobbyID != 0 {
			s.Rooms.Remove(sess.LobbyID, sess)
			s.Orch.Leave(context.Background(), sess.LobbyID, userID)
		}
		logger.Infof("user %s disconnected from lobby %d", userID, lobbyID)
	}
}

// readPump reads and dispatches client commands until the connection drops.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, lobbyID int64, sess *rooms.Session, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally for user %s in lobby %d", sess.UserID, lobbyID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Shutdown path, nothing to log.
			} else {
				logger.Warnf("read error for user %s in lobby %d: %v", sess.UserID, lobbyID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d from user %s", typ, sess.UserID)
			continue
		}

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			logger.Warnf("invalid json from user %s in lobby %d: %v", sess.UserID, lobbyID, err)
			continue
		}

		switch cmd.Type {
		case "join-lobby":
			if sess.LobbyID == 0 {
				sess.LobbyID = lobbyID
				s.Rooms.Add(lobbyID, sess)
			}
			s.Orch.Join(ctx, lobbyID, sess.UserID)

		case "leave-lobby":
			if sess.LobbyID != 0 {
				s.Rooms.Remove(sess.LobbyID, sess)
				sess.LobbyID = 0
			}
			s.Orch.Leave(ctx, lobbyID, sess.UserID)

		case "start-game":
			s.Orch.StartGame(ctx, lobbyID, sess.UserID)

		case "submit-guess":
			s.Orch.SubmitGuess(ctx, lobbyID, sess.UserID, cmd.Guess)

		default:
			logger.Warnf("unknown command %q from user %s in lobby %d", cmd.Type, sess.UserID, lobbyID)
		}
	}
}

// writePump drains the session's outgoing channel onto the socket and emits
// the heartbeat ping.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, sess *rooms.Session, logger *logrus.Logger) {
	ticker := time.NewTicker(s.Cfg.Game.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sess.Out:
			if !ok {
				return
			}
			if err := s.writeJSON(ctx, c, msg); err != nil {
				logger.Warnf("failed to write to websocket for user %s: %v", sess.UserID, err)
				return
			}
		case <-ticker.C:
			ping := game.PingEvent{Type: game.EventPing, Message: "ping"}
			if err := s.writeJSON(ctx, c, ping); err != nil {
				logger.Warnf("failed to write ping for user %s: %v", sess.UserID, err)
				return
			}
		}
	}
}

func (s *Server) writeJSON(ctx context.Context, c *websocket.Conn, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
