// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mwrobel/moresongs/internal/auth"
	"github.com/mwrobel/moresongs/internal/config"
	"github.com/mwrobel/moresongs/internal/database"
	"github.com/mwrobel/moresongs/internal/game"
	"github.com/mwrobel/moresongs/internal/rooms"
)

// Server bundles the dependencies the HTTP and WS handlers need.
type Server struct {
	Store *database.Store
	Orch  *game.Orchestrator
	Rooms *rooms.Registry
	Cfg   config.Config
}

// NewServer wires a handler server.
func NewServer(store *database.Store, orch *game.Orchestrator, registry *rooms.Registry, cfg config.Config) *Server {
	return &Server{
		Store: store,
		Orch:  orch,
		Rooms: registry,
		Cfg:   cfg,
	}
}

// authenticate resolves the caller's user id from the auth_token cookie.
func (s *Server) authenticate(r *http.Request) (uuid.UUID, bool) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		return uuid.Nil, false
	}
	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
