// internal/database/tracks.go
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mwrobel/moresongs/internal/models"
)

// ReplaceTracks persists the ordered round track sequence for a lobby,
// overwriting any sequence from a previous game. Round indexes are 1-based.
func (s *Store) ReplaceTracks(ctx context.Context, lobbyID int64, tracks []models.Track) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lobby_tracks WHERE lobby_id=$1`, lobbyID); err != nil {
			return err
		}
		q := `INSERT INTO lobby_tracks (lobby_id, round, track_id, title) VALUES ($1, $2, $3, $4)`
		for i, t := range tracks {
			if _, err := tx.Exec(ctx, q, lobbyID, i+1, t.ID, t.Title); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTrack fetches the track selected for a round. Returns (nil, nil) when no
// track is stored for that round.
func (s *Store) GetTrack(ctx context.Context, lobbyID int64, round int) (*models.Track, error) {
	var t models.Track
	q := `SELECT track_id, title FROM lobby_tracks WHERE lobby_id=$1 AND round=$2`
	err := s.db.QueryRow(ctx, q, lobbyID, round).Scan(&t.ID, &t.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTrackTitles returns every candidate title of the lobby's sequence,
// used by clients for guess autocomplete. Alphabetical, so the ordering does
// not give away which round a title belongs to.
func (s *Store) ListTrackTitles(ctx context.Context, lobbyID int64) ([]string, error) {
	q := `SELECT title FROM lobby_tracks WHERE lobby_id=$1 ORDER BY title ASC`
	rows, err := s.db.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}
