// internal/database/store.go
package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the postgres pool with the query methods the rest of the server
// uses. It is the durable side of the game: lobby rows, user/player rows and
// the per-lobby round track sequence all live here, so a crashed server can
// resynchronize from the database alone.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}
