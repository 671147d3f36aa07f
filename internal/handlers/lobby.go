// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/mwrobel/moresongs/internal/game"
)

type createLobbyRequest struct {
	PlaylistID *string `json:"playlistId"`
	Rounds     int     `json:"rounds"`
}

// maxRounds bounds the client-supplied round count. Start-game additionally
// clamps the persisted count down to the drawn track sequence.
const maxRounds = 20

type lobbyResponse struct {
	LobbyID string `json:"lobbyId"`
}

// CreateLobbyHandler creates a lobby hosted by the caller and puts the
// caller into it.
func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	var req createLobbyRequest
	if r.Body != nil {
		// An empty body means all defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	rounds := req.Rounds
	if rounds <= 0 {
		rounds = s.Cfg.Game.DefaultRounds
	}
	if rounds > maxRounds {
		rounds = maxRounds
	}

	lobby, err := s.Store.CreateLobby(r.Context(), userID, req.PlaylistID, rounds)
	if err != nil {
		logrus.Warnf("failed to create lobby: %v", err)
		http.Error(w, "error creating lobby", http.StatusInternalServerError)
		return
	}
	if err := s.Store.SetUserLobby(r.Context(), userID, &lobby.ID); err != nil {
		logrus.Warnf("failed to put host into lobby %d: %v", lobby.ID, err)
		http.Error(w, "error creating lobby", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lobbyResponse{LobbyID: strconv.FormatInt(lobby.ID, 10)})
}

type joinLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

// JoinLobbyHandler attaches the caller to an existing lobby. The live
// membership broadcast happens when the client opens its websocket and sends
// join-lobby.
func (s *Server) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	var req joinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	lobbyID, ok := game.ParseLobbyID(req.LobbyID)
	if !ok {
		http.Error(w, "invalid lobby id", http.StatusBadRequest)
		return
	}

	lobby, err := s.Store.GetLobby(r.Context(), lobbyID)
	if err != nil {
		logrus.Warnf("failed to look up lobby %d: %v", lobbyID, err)
		http.Error(w, "error joining lobby", http.StatusInternalServerError)
		return
	}
	if lobby == nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}

	if err := s.Store.SetUserLobby(r.Context(), userID, &lobbyID); err != nil {
		logrus.Warnf("failed to join lobby %d: %v", lobbyID, err)
		http.Error(w, "error joining lobby", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lobbyResponse{LobbyID: req.LobbyID})
}

type currentLobbyResponse struct {
	LobbyID *string `json:"lobbyId"`
}

// CurrentLobbyHandler reports which lobby the caller is in, if any.
func (s *Server) CurrentLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	user, err := s.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		logrus.Warnf("failed to look up user %s: %v", userID, err)
		http.Error(w, "error looking up user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	var resp currentLobbyResponse
	if user.LobbyID != nil {
		id := strconv.FormatInt(*user.LobbyID, 10)
		resp.LobbyID = &id
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
