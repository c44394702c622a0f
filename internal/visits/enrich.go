package visits

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
)

const Unknown = "Unknown"

type ProfileLookup interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

type Profile struct {
	FirstName string
	LastName  string
	PhotoURL  *string
}

func UnknownProfile() Profile {
	photo := Unknown
	return Profile{FirstName: Unknown, LastName: Unknown, PhotoURL: &photo}
}

// Enricher resolves the name and photo shown next to a scan. A missing or
// failing profile yields UnknownProfile so one bad reference cannot fail a
// report. Each call makes exactly one lookup.
type Enricher struct {
	lookup  ProfileLookup
	timeout time.Duration
	logger  *zap.Logger
}

func NewEnricher(lookup ProfileLookup, timeout time.Duration, logger *zap.Logger) *Enricher {
	return &Enricher{lookup: lookup, timeout: timeout, logger: logger}
}

func (e *Enricher) Enrich(ctx context.Context, userID string) Profile {
	if strings.TrimSpace(userID) == "" {
		metrics.ProfileLookups.WithLabelValues("missing").Inc()
		return UnknownProfile()
	}
	callCtx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()
	user, err := e.lookup.GetUser(callCtx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ProfileLookups.WithLabelValues("missing").Inc()
		} else {
			metrics.ProfileLookups.WithLabelValues("error").Inc()
			e.logger.Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return UnknownProfile()
	}
	metrics.ProfileLookups.WithLabelValues("found").Inc()
	return Profile{FirstName: user.FirstName, LastName: user.LastName, PhotoURL: user.PhotoURL}
}
