package visits

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
)

type ApproveResult struct {
	Token           model.VisitorNotification
	AlreadyApproved bool
	Notified        bool
}

// Approve moves a pending visit request to approved and issues its token
// record in one transaction. Approving twice returns the stored token and
// sends nothing. Errors after the commit (visitor missing, no device
// handle) are returned together with the issued token; the approval stands.
func (s *Service) Approve(ctx context.Context, visitRequestID string) (ApproveResult, error) {
	visitRequestID = strings.TrimSpace(visitRequestID)
	if visitRequestID == "" {
		return ApproveResult{}, apperr.Invalid("missing_visit_request_id")
	}

	callCtx, cancel := s.call(ctx)
	approval, err := s.store.ApproveVisit(callCtx, visitRequestID, s.issueToken)
	cancel()
	if err != nil {
		var appErr *apperr.Error
		switch {
		case errors.Is(err, repository.ErrNotFound):
			metrics.VisitsApproved.WithLabelValues("not_found").Inc()
			return ApproveResult{}, apperr.NotFound("visit_not_found")
		case errors.As(err, &appErr):
			metrics.VisitsApproved.WithLabelValues("invalid").Inc()
			return ApproveResult{}, err
		default:
			metrics.VisitsApproved.WithLabelValues("error").Inc()
			s.logger.Error("approve visit", zap.String("visit_request_id", visitRequestID), zap.Error(err))
			return ApproveResult{}, apperr.Upstream("store_error", err)
		}
	}

	result := ApproveResult{Token: approval.Token, AlreadyApproved: approval.AlreadyApproved}
	if approval.AlreadyApproved {
		metrics.VisitsApproved.WithLabelValues("already_approved").Inc()
		s.logger.Info("visit already approved", zap.String("visit_request_id", visitRequestID))
		return result, nil
	}
	metrics.VisitsApproved.WithLabelValues("approved").Inc()
	s.logger.Info("visit approved",
		zap.String("visit_request_id", visitRequestID),
		zap.Time("valid_from", approval.Token.ValidFrom),
		zap.Time("valid_until", approval.Token.ValidUntil),
	)

	visitor, err := s.getUser(ctx, approval.Visit.VisitorID, "visitor_not_found")
	if err != nil {
		return result, err
	}
	handle := visitor.DeviceHandle()
	if handle == "" {
		metrics.PushNotifications.WithLabelValues(kindVisitApproved, "skipped").Inc()
		return result, apperr.DeviceNotRegistered("visitor_device_not_registered")
	}
	result.Notified = s.notify(ctx, kindVisitApproved, visitApprovedMessage(approval.Visit, handle))
	return result, nil
}

func (s *Service) issueToken(visit model.VisitRequest) (model.VisitorNotification, error) {
	validFrom, err := ParseSchedule(visit.VisitDate, visit.VisitTime, s.opts.Location)
	if err != nil {
		return model.VisitorNotification{}, apperr.Invalid("invalid_visit_schedule")
	}
	return model.VisitorNotification{
		ID:             s.opts.NewID(),
		VisitRequestID: visit.ID,
		UserID:         visit.VisitorID,
		HomeownerID:    visit.HomeownerID,
		QRCode:         s.codec.Derive(visit.ID),
		ValidFrom:      validFrom,
		ValidUntil:     validFrom.Add(ValidityWindow),
		IsRead:         0,
		CreatedAt:      s.opts.Now().UTC(),
	}, nil
}
