package repository

import (
	"context"
	"time"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

func (s *Store) EnqueueCleanup(ctx context.Context, uid, reason string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO account_cleanup (uid, reason, attempts, created_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		ON CONFLICT (uid) DO UPDATE SET reason = EXCLUDED.reason, updated_at = now()
	`, uid, reason)
	return err
}

func (s *Store) ListCleanup(ctx context.Context, limit int) ([]model.CleanupEntry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT uid, reason, attempts, last_error, created_at, updated_at
		FROM account_cleanup
		ORDER BY updated_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CleanupEntry
	for rows.Next() {
		var entry model.CleanupEntry
		if err := rows.Scan(&entry.UID, &entry.Reason, &entry.Attempts, &entry.LastError, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) CompleteCleanup(ctx context.Context, uid string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM account_cleanup WHERE uid = $1`, uid)
	return err
}

func (s *Store) FailCleanup(ctx context.Context, uid string, cause error) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE account_cleanup SET attempts = attempts + 1, last_error = $2, updated_at = $3 WHERE uid = $1
	`, uid, cause.Error(), time.Now().UTC())
	return err
}
