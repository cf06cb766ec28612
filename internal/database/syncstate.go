package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SyncState is the mailbox cursor of one user.
type SyncState struct {
	UserID       string
	Folder       string
	LastUID      uint32
	LastSyncedAt time.Time
	LastError    string
}

// SyncState returns the stored cursor, or a zero cursor for users never synced.
func (s *Store) SyncState(ctx context.Context, userID string) (SyncState, error) {
	var (
		st     SyncState
		lastID int64
		synced int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, folder, last_uid, last_synced_at, last_error
FROM sync_state WHERE user_id = ?;`, userID,
	).Scan(&st.UserID, &st.Folder, &lastID, &synced, &st.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{UserID: userID}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("get sync state: %w", err)
	}
	st.LastUID = uint32(lastID)
	st.LastSyncedAt = fromMillis(synced)
	return st, nil
}

func (s *Store) PutSyncState(ctx context.Context, st SyncState) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sync_state (user_id, folder, last_uid, last_synced_at, last_error)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  folder = excluded.folder,
  last_uid = excluded.last_uid,
  last_synced_at = excluded.last_synced_at,
  last_error = excluded.last_error;`,
		st.UserID, st.Folder, int64(st.LastUID), toMillis(st.LastSyncedAt), st.LastError,
	)
	if err != nil {
		return fmt.Errorf("put sync state: %w", err)
	}
	return nil
}
