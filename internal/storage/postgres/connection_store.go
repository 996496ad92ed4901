package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// ConnectionStore persists live connection rows in Postgres. Rows are
// written by the websocket hub on identify and removed on disconnect.
type ConnectionStore struct {
	pool Pool
}

// NewConnectionStore wraps the pool with connection persistence.
func NewConnectionStore(pool Pool) (*ConnectionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ConnectionStore{pool: pool}, nil
}

const insertConnectionSQL = `
INSERT INTO user_connections (user_id, connection_id)
VALUES ($1, $2)`

// Create records a new live connection for the user.
func (s *ConnectionStore) Create(ctx context.Context, conn keyword.Connection) error {
	if conn.UserID == "" || conn.ConnectionID == "" {
		return keyword.NewValidation("user id and connection id are required")
	}
	if _, err := s.pool.Exec(ctx, insertConnectionSQL, conn.UserID, conn.ConnectionID); err != nil {
		return fmt.Errorf("insert user connection: %w", err)
	}
	return nil
}

const latestConnectionSQL = `
SELECT user_id, connection_id, created_at
FROM user_connections
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`

// LatestByUserID returns the user's most recently recorded connection.
func (s *ConnectionStore) LatestByUserID(ctx context.Context, userID string) (keyword.Connection, error) {
	var conn keyword.Connection
	row := s.pool.QueryRow(ctx, latestConnectionSQL, userID)
	if err := row.Scan(&conn.UserID, &conn.ConnectionID, &conn.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return keyword.Connection{}, keyword.NewNotFound("Can not get user connection")
		}
		return keyword.Connection{}, fmt.Errorf("select user connection: %w", err)
	}
	return conn, nil
}

const deleteByConnectionSQL = `
DELETE FROM user_connections
WHERE connection_id = $1`

// DeleteByConnectionID removes the row recorded for a closed connection.
func (s *ConnectionStore) DeleteByConnectionID(ctx context.Context, connectionID string) error {
	if _, err := s.pool.Exec(ctx, deleteByConnectionSQL, connectionID); err != nil {
		return fmt.Errorf("delete user connection: %w", err)
	}
	return nil
}

const deleteByUserSQL = `
DELETE FROM user_connections
WHERE user_id = $1`

// DeleteByUserID removes every connection recorded for the user.
func (s *ConnectionStore) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, deleteByUserSQL, userID); err != nil {
		return fmt.Errorf("delete user connections: %w", err)
	}
	return nil
}
