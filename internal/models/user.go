package models

import "github.com/google/uuid"

// User is a row in the users table. A user belongs to at most one lobby at a
// time; LobbyID == nil means "not in any lobby".
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Name     string    `json:"name"`

	// AccessToken is an optional OAuth token used to fetch the user's
	// playlists from the track provider. Never exposed to clients.
	AccessToken string `json:"-"`

	LobbyID *int64 `json:"lobbyId"`

	// Points and LastCorrectRound are scoped to the current game in the
	// joined lobby. GlobalPoints accumulates across all games.
	Points           int `json:"points"`
	LastCorrectRound int `json:"lastCorrectRound"`
	GlobalPoints     int `json:"globalPoints"`
}

// PlayerScore is the scoreboard entry broadcast to clients.
type PlayerScore struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
}
