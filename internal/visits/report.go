package visits

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/timewindow"
)

type ReportInput struct {
	Type      string
	StartDate string
	EndDate   string
}

// ReportRow is a scan record's stored fields plus the scanner's profile.
type ReportRow map[string]any

// Report lists the scans of one source inside [StartDate, EndDate], each
// enriched with the scanned user's name and photo. Rows keep store order.
// Rows with an unreadable timestamp are skipped.
func (s *Service) Report(ctx context.Context, in ReportInput) ([]ReportRow, error) {
	source := model.ScanSource(strings.TrimSpace(in.Type))
	if !source.Valid() {
		return nil, apperr.Invalid("invalid_type")
	}
	window, err := timewindow.Days(in.StartDate, in.EndDate, s.opts.Location)
	if err != nil {
		if errors.Is(err, timewindow.ErrInvertedRange) {
			return nil, apperr.Invalid("invalid_date_range")
		}
		return nil, apperr.Invalid("invalid_date")
	}

	callCtx, cancel := s.call(ctx)
	scans, err := s.store.ListScans(callCtx, source)
	cancel()
	if err != nil {
		s.logger.Error("list scans", zap.String("source", string(source)), zap.Error(err))
		return nil, apperr.Upstream("store_error", err)
	}

	matched := make([]model.ScanRecord, 0, len(scans))
	for _, scan := range scans {
		at, err := timewindow.Normalize(scan, s.opts.Location)
		if err != nil {
			metrics.ReportRows.WithLabelValues(string(source), "malformed").Inc()
			s.logger.Warn("skipping scan with malformed timestamp",
				zap.String("source", string(source)),
				zap.String("scan_id", scan.ID),
				zap.Error(err),
			)
			continue
		}
		if !window.Contains(at) {
			metrics.ReportRows.WithLabelValues(string(source), "out_of_range").Inc()
			continue
		}
		matched = append(matched, scan)
	}

	rows := make([]ReportRow, len(matched))
	var g errgroup.Group
	g.SetLimit(s.opts.ReportConcurrency)
	for i, scan := range matched {
		g.Go(func() error {
			rows[i] = s.buildRow(scan, s.enricher.Enrich(ctx, scan.UserID))
			return nil
		})
	}
	_ = g.Wait()
	metrics.ReportRows.WithLabelValues(string(source), "included").Add(float64(len(rows)))
	return rows, nil
}

func (s *Service) buildRow(scan model.ScanRecord, profile Profile) ReportRow {
	row := make(ReportRow, len(scan.Extra)+6)
	for k, v := range scan.Extra {
		row[k] = v
	}
	row["id"] = scan.ID
	row["userId"] = scan.UserID
	switch scan.Source {
	case model.SourceRFID:
		row["timestamp"] = scan.Timestamp
	case model.SourceQRCode:
		row["scannedAt"] = scan.ScannedAt.In(s.opts.Location).Format(time.RFC3339)
	}
	row["firstName"] = profile.FirstName
	row["lastName"] = profile.LastName
	row["photoURL"] = profile.PhotoURL
	return row
}
