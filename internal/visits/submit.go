package visits

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

type SubmitInput struct {
	HomeownerID    string
	VisitorID      string
	Classification string
	VisitDate      string
	VisitTime      string
}

type SubmitResult struct {
	VisitRequestID string
	// Notified is false when the homeowner has no device handle or the push
	// failed. The visit request is stored either way.
	Notified bool
}

// Submit stores a visit request together with its pending homeowner
// notification, then tells the homeowner's device.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	in = SubmitInput{
		HomeownerID:    strings.TrimSpace(in.HomeownerID),
		VisitorID:      strings.TrimSpace(in.VisitorID),
		Classification: strings.TrimSpace(in.Classification),
		VisitDate:      strings.TrimSpace(in.VisitDate),
		VisitTime:      strings.TrimSpace(in.VisitTime),
	}
	if in.HomeownerID == "" || in.VisitorID == "" || in.Classification == "" || in.VisitDate == "" || in.VisitTime == "" {
		return SubmitResult{}, apperr.Invalid("missing_fields")
	}
	if _, err := ParseSchedule(in.VisitDate, in.VisitTime, s.opts.Location); err != nil {
		return SubmitResult{}, apperr.Invalid("invalid_visit_schedule")
	}

	homeowner, err := s.getUser(ctx, in.HomeownerID, "homeowner_not_found")
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.opts.Now().UTC()
	visit := model.VisitRequest{
		ID:             s.opts.NewID(),
		HomeownerID:    in.HomeownerID,
		VisitorID:      in.VisitorID,
		Classification: in.Classification,
		VisitDate:      in.VisitDate,
		VisitTime:      in.VisitTime,
		CreatedAt:      now,
	}
	note := model.HomeownerNotification{
		VisitRequestID: visit.ID,
		IsRead:         0,
		Status:         model.StatusPending,
		CreatedAt:      now,
	}

	callCtx, cancel := s.call(ctx)
	err = s.store.CreateVisitRequest(callCtx, visit, note)
	cancel()
	if err != nil {
		s.logger.Error("store visit request", zap.String("homeowner_id", visit.HomeownerID), zap.Error(err))
		return SubmitResult{}, apperr.Upstream("store_error", err)
	}
	metrics.VisitsSubmitted.Inc()
	s.logger.Info("visit request submitted",
		zap.String("visit_request_id", visit.ID),
		zap.String("homeowner_id", visit.HomeownerID),
		zap.String("visitor_id", visit.VisitorID),
	)

	notified := s.notify(ctx, kindVisitScheduled, visitScheduledMessage(visit, homeowner.DeviceHandle()))
	return SubmitResult{VisitRequestID: visit.ID, Notified: notified}, nil
}
