package visits

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidSchedule = errors.New("invalid visit date or time")

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// ParseSchedule combines a YYYY-MM-DD date and a time of day into an
// instant in loc. Accepted times: 24h HH:MM or HH:MM:SS, or 12h h:mm AM/PM.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, ErrInvalidSchedule
	}
	clock = strings.ToUpper(strings.TrimSpace(clock))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, ErrInvalidSchedule
}
