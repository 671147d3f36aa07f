// internal/database/lobby.go
package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mwrobel/moresongs/internal/models"
)

// CreateLobby inserts a new lobby in the waiting phase and returns it.
func (s *Store) CreateLobby(ctx context.Context, hostID uuid.UUID, playlistID *string, rounds int) (*models.Lobby, error) {
	l := &models.Lobby{
		HostID:     hostID,
		PlaylistID: playlistID,
		Rounds:     rounds,
		Phase:      models.PhaseWaiting,
	}
	q := `
	INSERT INTO lobbies (host_id, playlist_id, rounds, phase, round)
	VALUES ($1, $2, $3, $4, 0)
	RETURNING id
	`
	err := s.db.QueryRow(ctx, q, hostID, playlistID, rounds, models.PhaseWaiting).Scan(&l.ID)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLobby fetches a lobby by id. Returns (nil, nil) if the lobby does not
// exist; timer callbacks rely on that to no-op after a lobby was deleted.
func (s *Store) GetLobby(ctx context.Context, lobbyID int64) (*models.Lobby, error) {
	var l models.Lobby
	q := `
	SELECT id, host_id, playlist_id, rounds, phase, round, round_ends_at, phase_ends_at
	FROM lobbies
	WHERE id = $1
	`
	err := s.db.QueryRow(ctx, q, lobbyID).Scan(
		&l.ID,
		&l.HostID,
		&l.PlaylistID,
		&l.Rounds,
		&l.Phase,
		&l.Round,
		&l.RoundEndsAt,
		&l.PhaseEndsAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLobby removes a lobby row and its round tracks.
func (s *Store) DeleteLobby(ctx context.Context, lobbyID int64) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lobby_tracks WHERE lobby_id=$1`, lobbyID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM lobbies WHERE id=$1`, lobbyID)
		return err
	})
}

// ListPlayers returns the lobby's current members as scoreboard entries,
// sorted by points descending with name ascending as the tie-break.
func (s *Store) ListPlayers(ctx context.Context, lobbyID int64) ([]models.PlayerScore, error) {
	q := `
	SELECT id, name, points
	FROM users
	WHERE lobby_id = $1
	ORDER BY points DESC, name ASC
	`
	rows, err := s.db.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.PlayerScore
	for rows.Next() {
		var p models.PlayerScore
		if err := rows.Scan(&p.ID, &p.Name, &p.Points); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ResetScores zeroes every member's in-game score ahead of a new game.
func (s *Store) ResetScores(ctx context.Context, lobbyID int64) error {
	q := `UPDATE users SET points=0, last_correct_round=0 WHERE lobby_id=$1`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobbyID)
		return err
	})
}

// ResetGame puts the lobby back into the waiting phase with no active round
// and no deadlines.
func (s *Store) ResetGame(ctx context.Context, lobbyID int64) error {
	q := `
	UPDATE lobbies
	SET phase=$1, round=0, round_ends_at=NULL, phase_ends_at=NULL
	WHERE id=$2
	`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, models.PhaseWaiting, lobbyID)
		return err
	})
}

// SetRounds overwrites the lobby's round count, used to clamp a game down to
// however many tracks the pool actually yielded.
func (s *Store) SetRounds(ctx context.Context, lobbyID int64, rounds int) error {
	q := `UPDATE lobbies SET rounds=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, rounds, lobbyID)
		return err
	})
}

// BeginRound moves the lobby into the playing phase for the given round with
// the given absolute deadline. Clears any leftover reveal deadline so the
// "round_ends_at iff playing" invariant holds.
func (s *Store) BeginRound(ctx context.Context, lobbyID int64, round int, endsAt time.Time) error {
	q := `
	UPDATE lobbies
	SET phase=$1, round=$2, round_ends_at=$3, phase_ends_at=NULL
	WHERE id=$4
	`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, models.PhasePlaying, round, endsAt, lobbyID)
		return err
	})
}

// BeginReveal moves the lobby into the revealing phase until endsAt.
func (s *Store) BeginReveal(ctx context.Context, lobbyID int64, endsAt time.Time) error {
	q := `
	UPDATE lobbies
	SET phase=$1, round_ends_at=NULL, phase_ends_at=$2
	WHERE id=$3
	`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, models.PhaseRevealing, endsAt, lobbyID)
		return err
	})
}

// FinishGame marks the lobby finished and clears both deadlines.
func (s *Store) FinishGame(ctx context.Context, lobbyID int64) error {
	q := `
	UPDATE lobbies
	SET phase=$1, round_ends_at=NULL, phase_ends_at=NULL
	WHERE id=$2
	`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, models.PhaseFinished, lobbyID)
		return err
	})
}

// AwardPoint gives the player one point for the round, at most once: the
// update is conditioned on last_correct_round so a duplicate accepted guess
// changes nothing. The global counter rides along in the same statement.
// Returns whether a row was actually changed.
func (s *Store) AwardPoint(ctx context.Context, lobbyID int64, userID uuid.UUID, round int) (bool, error) {
	q := `
	UPDATE users
	SET points = points + 1,
	    global_points = global_points + 1,
	    last_correct_round = $1
	WHERE id = $2 AND lobby_id = $3 AND last_correct_round <> $1
	`
	var awarded bool
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, round, userID, lobbyID)
		if err != nil {
			return err
		}
		awarded = tag.RowsAffected() > 0
		return nil
	})
	return awarded, err
}
