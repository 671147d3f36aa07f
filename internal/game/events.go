// internal/game/events.go
package game

import (
	"strconv"

	"github.com/mwrobel/moresongs/internal/models"
)

// Event names on the wire. Clients switch on the Type field.
const (
	EventLobbyUpdated  = "lobby-updated"
	EventLeaveLobby    = "leave-lobby"
	EventStartGame     = "start-game"
	EventGameStarted   = "game-started"
	EventGameTick      = "game-tick"
	EventRoundReveal   = "round-reveal"
	EventScoresUpdated = "scores-updated"
	EventGameFinished  = "game-finished"
	EventPing          = "ping"
)

// Lobby ids travel as strings on the wire.
func lobbyIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// LobbyUpdatedEvent reports the current membership of a lobby.
type LobbyUpdatedEvent struct {
	Type    string               `json:"type"`
	LobbyID string               `json:"lobbyId"`
	HostID  string               `json:"hostId"`
	Players []models.PlayerScore `json:"players"`
}

// LeaveLobbyEvent directs every recipient to exit the lobby immediately.
// Sent when the host leaves or disconnects.
type LeaveLobbyEvent struct {
	Type string `json:"type"`
}

// StartGameEvent tells clients to switch into the game view before the first
// round payload arrives.
type StartGameEvent struct {
	Type string `json:"type"`
}

// GameStartedEvent opens a round. MusicsTitles carries every title in the
// game's track pool, alphabetized, for client-side autocomplete.
type GameStartedEvent struct {
	Type         string               `json:"type"`
	LobbyID      string               `json:"lobbyId"`
	Round        int                  `json:"round"`
	TimeLeft     int                  `json:"timeLeft"`
	Scores       []models.PlayerScore `json:"scores"`
	MusicID      string               `json:"musicId"`
	MusicTitle   string               `json:"musicTitle"`
	MusicsTitles []string             `json:"musicsTitles"`
}

// GameTickEvent is the once-per-second countdown during a round.
type GameTickEvent struct {
	Type     string `json:"type"`
	LobbyID  string `json:"lobbyId"`
	Round    int    `json:"round"`
	TimeLeft int    `json:"timeLeft"`
}

// RoundRevealEvent publishes the answer at the end of a round.
type RoundRevealEvent struct {
	Type    string `json:"type"`
	LobbyID string `json:"lobbyId"`
	Round   int    `json:"round"`
	Answer  string `json:"answer"`
}

// ScoresUpdatedEvent pushes the lobby scoreboard after a correct guess.
type ScoresUpdatedEvent struct {
	Type    string               `json:"type"`
	LobbyID string               `json:"lobbyId"`
	Scores  []models.PlayerScore `json:"scores"`
}

// GameFinishedEvent carries the final standings.
type GameFinishedEvent struct {
	Type    string               `json:"type"`
	LobbyID string               `json:"lobbyId"`
	Scores  []models.PlayerScore `json:"scores"`
}

// PingEvent keeps intermediaries from idling out the connection.
type PingEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
