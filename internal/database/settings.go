package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingsBody returns the raw settings document stored for userID.
func (s *Store) SettingsBody(ctx context.Context, userID string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
SELECT body FROM settings WHERE user_id = ?;`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: settings for %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return []byte(body), nil
}

func (s *Store) PutSettingsBody(ctx context.Context, userID string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (user_id, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at;`,
		userID, string(body), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}
