package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

// CreateVisitRequest stores the request and its pending homeowner
// notification together.
func (s *Store) CreateVisitRequest(ctx context.Context, visit model.VisitRequest, note model.HomeownerNotification) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO visit_requests (id, homeowner_id, visitor_id, classification, visit_date, visit_time, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, visit.ID, visit.HomeownerID, visit.VisitorID, visit.Classification, visit.VisitDate, visit.VisitTime, visit.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO homeowner_notifications (visit_request_id, is_read, status, created_at)
			VALUES ($1, $2, $3, $4)
		`, note.VisitRequestID, note.IsRead, string(note.Status), note.CreatedAt)
		return err
	})
}

func (s *Store) GetVisitRequest(ctx context.Context, id string) (model.VisitRequest, error) {
	return getVisitRequest(ctx, s.Pool, id, false)
}

// ApproveVisit runs the pending → approved transition with the request row
// locked. build is only called when the request is still pending; an
// already approved request returns its stored token record.
func (s *Store) ApproveVisit(ctx context.Context, id string, build func(model.VisitRequest) (model.VisitorNotification, error)) (model.Approval, error) {
	var approval model.Approval
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		visit, err := getVisitRequest(ctx, tx, id, true)
		if err != nil {
			return err
		}
		approval.Visit = visit

		var status string
		if err := tx.QueryRow(ctx, `
			SELECT status FROM homeowner_notifications WHERE visit_request_id = $1 FOR UPDATE
		`, id).Scan(&status); err != nil {
			return notFound(err)
		}

		if model.NotificationStatus(status) == model.StatusApproved {
			record, err := getVisitorNotification(ctx, tx, id)
			if err != nil {
				return err
			}
			approval.Token = record
			approval.AlreadyApproved = true
			return nil
		}

		record, err := build(visit)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_notifications (id, visit_request_id, user_id, homeowner_id, qr_code, valid_from, valid_until, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, record.ID, record.VisitRequestID, record.UserID, record.HomeownerID, record.QRCode,
			record.ValidFrom, record.ValidUntil, record.IsRead, record.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE homeowner_notifications SET status = $2, updated_at = $3 WHERE visit_request_id = $1
		`, id, string(model.StatusApproved), record.CreatedAt); err != nil {
			return err
		}
		approval.Token = record
		return nil
	})
	if err != nil {
		return model.Approval{}, err
	}
	return approval, nil
}

func (s *Store) GetHomeownerNotification(ctx context.Context, visitRequestID string) (model.HomeownerNotification, error) {
	var note model.HomeownerNotification
	var status string
	err := s.Pool.QueryRow(ctx, `
		SELECT visit_request_id, is_read, status, created_at, updated_at
		FROM homeowner_notifications
		WHERE visit_request_id = $1
	`, visitRequestID).Scan(&note.VisitRequestID, &note.IsRead, &status, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return model.HomeownerNotification{}, notFound(err)
	}
	note.Status = model.NotificationStatus(status)
	return note, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getVisitRequest(ctx context.Context, q querier, id string, lock bool) (model.VisitRequest, error) {
	query := `
		SELECT id, homeowner_id, visitor_id, classification, visit_date, visit_time, created_at
		FROM visit_requests
		WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var visit model.VisitRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&visit.ID,
		&visit.HomeownerID,
		&visit.VisitorID,
		&visit.Classification,
		&visit.VisitDate,
		&visit.VisitTime,
		&visit.CreatedAt,
	)
	if err != nil {
		return model.VisitRequest{}, notFound(err)
	}
	return visit, nil
}

func getVisitorNotification(ctx context.Context, q querier, visitRequestID string) (model.VisitorNotification, error) {
	var record model.VisitorNotification
	err := q.QueryRow(ctx, `
		SELECT id, visit_request_id, user_id, homeowner_id, qr_code, valid_from, valid_until, is_read, created_at
		FROM user_notifications
		WHERE visit_request_id = $1
	`, visitRequestID).Scan(
		&record.ID,
		&record.VisitRequestID,
		&record.UserID,
		&record.HomeownerID,
		&record.QRCode,
		&record.ValidFrom,
		&record.ValidUntil,
		&record.IsRead,
		&record.CreatedAt,
	)
	if err != nil {
		return model.VisitorNotification{}, notFound(err)
	}
	return record, nil
}
