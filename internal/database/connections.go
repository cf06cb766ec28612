package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Connection is a stored provider grant. Token is the provider token serialized as JSON.
type Connection struct {
	UserID    string
	Provider  string
	Token     string
	Status    string
	LastError string
	UpdatedAt time.Time
}

func (s *Store) Connection(ctx context.Context, userID, provider string) (Connection, error) {
	var (
		c       Connection
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, provider, token, status, last_error, updated_at
FROM connections WHERE user_id = ? AND provider = ?;`,
		userID, provider,
	).Scan(&c.UserID, &c.Provider, &c.Token, &c.Status, &c.LastError, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Connection{}, fmt.Errorf("%w: %s connection", ErrNotFound, provider)
	}
	if err != nil {
		return Connection{}, fmt.Errorf("get connection: %w", err)
	}
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func (s *Store) UpsertConnection(ctx context.Context, c Connection) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO connections (user_id, provider, token, status, last_error, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, provider) DO UPDATE SET
  token = excluded.token,
  status = excluded.status,
  last_error = excluded.last_error,
  updated_at = excluded.updated_at;`,
		c.UserID, c.Provider, c.Token, c.Status, c.LastError, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

// SetConnectionStatus updates status and last error without touching the token.
func (s *Store) SetConnectionStatus(ctx context.Context, userID, provider, status, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE connections SET status = ?, last_error = ?, updated_at = ?
WHERE user_id = ? AND provider = ?;`,
		status, lastError, toMillis(s.now()), userID, provider,
	)
	if err != nil {
		return fmt.Errorf("set connection status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s connection", ErrNotFound, provider)
	}
	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, userID, provider string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM connections WHERE user_id = ? AND provider = ?;`, userID, provider)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

func (s *Store) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, provider, token, status, last_error, updated_at
FROM connections WHERE user_id = ? ORDER BY provider;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var (
			c       Connection
			updated int64
		)
		if err := rows.Scan(&c.UserID, &c.Provider, &c.Token, &c.Status, &c.LastError, &updated); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c.UpdatedAt = fromMillis(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}
