package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the lobby's state-machine state.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhasePlaying   Phase = "playing"
	PhaseRevealing Phase = "revealing"
	PhaseFinished  Phase = "finished"
)

// Lobby is a row in the lobbies table. Phase, Round and the two deadlines are
// mutated only by the game orchestrator; the row is the single source of truth
// for session state, so a restarted server resynchronizes from it.
type Lobby struct {
	ID     int64     `json:"id"`
	HostID uuid.UUID `json:"hostId"`

	// PlaylistID references the external playlist the round tracks are drawn
	// from; nil means the built-in demo set.
	PlaylistID *string `json:"playlistId"`
	Rounds     int     `json:"rounds"`

	Phase Phase `json:"phase"`
	Round int   `json:"round"`

	// RoundEndsAt is non-nil iff Phase == PhasePlaying.
	RoundEndsAt *time.Time `json:"roundEndsAt"`
	// PhaseEndsAt is non-nil iff Phase == PhaseRevealing.
	PhaseEndsAt *time.Time `json:"phaseEndsAt"`
}
