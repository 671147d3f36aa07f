package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mwrobel/moresongs/internal/auth"
	"github.com/mwrobel/moresongs/internal/models"
)

// LeaderboardRow is one entry of the global ranking.
type LeaderboardRow struct {
	Name         string `json:"name"`
	GlobalPoints int    `json:"globalPoints"`
}

// CreateUser hashes the password and inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, email, password, name, access_token)
	      VALUES ($1, $2, $3, $4, $5)`

	err = pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Name, user.AccessToken,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password, name, COALESCE(access_token, ''),
	lobby_id, points, last_correct_round, global_points`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.AccessToken,
		&u.LobbyID, &u.Points, &u.LastCorrectRound, &u.GlobalPoints,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(s.db.QueryRow(ctx, q, email))
}

// GetUserByID fetches a user by id. Returns (nil, nil) if no such user exists.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	u, err := scanUser(s.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// AuthenticateUser checks credentials and mints a session JWT on success.
func (s *Store) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}

	return token, nil
}

// SetUserLobby moves a player into a lobby, or out of any lobby when lobbyID
// is nil. Clearing before any new join is what keeps "at most one lobby per
// player" true.
func (s *Store) SetUserLobby(ctx context.Context, userID uuid.UUID, lobbyID *int64) error {
	q := `UPDATE users SET lobby_id=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobbyID, userID)
		return err
	})
}

// UpdateAccessToken stores the OAuth token used to fetch the user's playlists.
func (s *Store) UpdateAccessToken(ctx context.Context, userID uuid.UUID, token string) error {
	q := `UPDATE users SET access_token=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, token, userID)
		return err
	})
}

// GlobalLeaderboard returns the all-time ranking, best first. Ties are broken
// by name ascending so the ordering is stable between refreshes.
func (s *Store) GlobalLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	q := `
	SELECT name, global_points
	FROM users
	ORDER BY global_points DESC, name ASC
	LIMIT $1
	`
	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Name, &r.GlobalPoints); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
