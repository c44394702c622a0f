// Package timewindow normalizes scan timestamps and tests them against an
// inclusive range of calendar days.
//
// All civil times (textual rfid stamps, report dates) are read in one
// configured location. Nothing depends on the process locale.
package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

const TextLayout = "2006-01-02 15:04:05"

var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvertedRange      = errors.New("end date before start date")
	ErrUnknownSource      = errors.New("unknown scan source")
)

type Window struct {
	Start time.Time
	End   time.Time
}

// Days expands two ISO dates to [start 00:00:00, end 23:59:59.999999999].
func Days(startISO, endISO string, loc *time.Location) (Window, error) {
	start, err := parseDay(startISO, loc)
	if err != nil {
		return Window{}, fmt.Errorf("start date: %w", err)
	}
	end, err := parseDay(endISO, loc)
	if err != nil {
		return Window{}, fmt.Errorf("end date: %w", err)
	}
	if end.Before(start) {
		return Window{}, ErrInvertedRange
	}
	return Window{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Nanosecond)}, nil
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Normalize returns the instant a scan happened at, whatever its source.
func Normalize(scan model.ScanRecord, loc *time.Location) (time.Time, error) {
	switch scan.Source {
	case model.SourceRFID:
		return ParseText(scan.Timestamp, loc)
	case model.SourceQRCode:
		if scan.ScannedAt.IsZero() {
			return time.Time{}, ErrMalformedTimestamp
		}
		return scan.ScannedAt.In(loc), nil
	default:
		return time.Time{}, ErrUnknownSource
	}
}

// ParseText reads "YYYY-MM-DD HH:MM:SS". Every component must be numeric
// and in range; out-of-range values are rejected rather than normalized.
func ParseText(raw string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(raw, " ")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	date, err := splitInts(parts[0], "-")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	clock, err := splitInts(parts[1], ":")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	year, month, day := date[0], date[1], date[2]
	hour, minute, second := clock[0], clock[1], clock[2]
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrMalformedTimestamp, raw)
	}
	// A wall clock inside a DST gap does not exist. time.Date resolves it
	// with one of the neighbouring offsets, which keeps it on the same day.
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func splitInts(value, sep string) ([3]int, error) {
	var out [3]int
	fields := strings.Split(value, sep)
	if len(fields) != 3 {
		return out, ErrMalformedTimestamp
	}
	for i, field := range fields {
		if field == "" || strings.TrimLeft(field, "0123456789") != "" {
			return out, ErrMalformedTimestamp
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
