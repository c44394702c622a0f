// Package visits implements the visit workflow (submit, approve) and the
// scan report.
package visits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/push"
	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
	"github.com/kfd-o/mobile-firebase-backend/internal/token"
)

// ValidityWindow is how long an issued visit token stays valid after the
// scheduled visit start.
const ValidityWindow = 24 * time.Hour

type Store interface {
	ProfileLookup
	CreateVisitRequest(ctx context.Context, visit model.VisitRequest, note model.HomeownerNotification) error
	ApproveVisit(ctx context.Context, id string, build func(model.VisitRequest) (model.VisitorNotification, error)) (model.Approval, error)
	ListScans(ctx context.Context, source model.ScanSource) ([]model.ScanRecord, error)
}

type Options struct {
	Location          *time.Location
	UpstreamTimeout   time.Duration
	ReportConcurrency int
	Now               func() time.Time
	NewID             func() string
}

type Service struct {
	store    Store
	push     push.Sender
	codec    *token.Codec
	enricher *Enricher
	logger   *zap.Logger
	opts     Options
}

func NewService(store Store, sender push.Sender, codec *token.Codec, logger *zap.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ReportConcurrency <= 0 {
		opts.ReportConcurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		store:    store,
		push:     sender,
		codec:    codec,
		enricher: NewEnricher(store, opts.UpstreamTimeout, logger),
		logger:   logger,
		opts:     opts,
	}
}

func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.opts.UpstreamTimeout)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *Service) getUser(ctx context.Context, id, notFoundCode string) (model.User, error) {
	callCtx, cancel := s.call(ctx)
	defer cancel()
	user, err := s.store.GetUser(callCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperr.NotFound(notFoundCode)
		}
		s.logger.Error("user lookup failed", zap.String("user_id", id), zap.Error(err))
		return model.User{}, apperr.Upstream("store_error", err)
	}
	return user, nil
}

// notify is best-effort: failures are logged and counted, never returned.
func (s *Service) notify(ctx context.Context, kind string, msg push.Message) bool {
	if msg.Token == "" {
		metrics.PushNotifications.WithLabelValues(kind, "skipped").Inc()
		s.logger.Warn("push skipped: no device handle", zap.String("kind", kind))
		return false
	}
	callCtx, cancel := s.call(ctx)
	defer cancel()
	id, err := s.push.Send(callCtx, msg)
	if err != nil {
		metrics.PushNotifications.WithLabelValues(kind, "failed").Inc()
		s.logger.Error("push notification failed", zap.String("kind", kind), zap.Error(err))
		return false
	}
	metrics.PushNotifications.WithLabelValues(kind, "sent").Inc()
	s.logger.Info("push notification sent", zap.String("kind", kind), zap.String("message_id", id))
	return true
}
