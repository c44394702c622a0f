package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

// ListScans returns the whole scan log for source in the table's natural
// order. Filtering happens in memory.
func (s *Store) ListScans(ctx context.Context, source model.ScanSource) ([]model.ScanRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch source {
	case model.SourceQRCode:
		rows, err = s.Pool.Query(ctx, `SELECT id, user_id, code, scanned_at, extra FROM scanned_codes`)
	case model.SourceRFID:
		rows, err = s.Pool.Query(ctx, `SELECT id, user_id, timestamp, extra FROM rfid`)
	default:
		return nil, fmt.Errorf("unknown scan source %q", source)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ScanRecord
	for rows.Next() {
		record := model.ScanRecord{Source: source}
		switch source {
		case model.SourceQRCode:
			var code string
			if err := rows.Scan(&record.ID, &record.UserID, &code, &record.ScannedAt, &record.Extra); err != nil {
				return nil, err
			}
			if record.Extra == nil {
				record.Extra = map[string]any{}
			}
			record.Extra["code"] = code
		case model.SourceRFID:
			if err := rows.Scan(&record.ID, &record.UserID, &record.Timestamp, &record.Extra); err != nil {
				return nil, err
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
