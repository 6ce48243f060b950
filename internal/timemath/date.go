package timemath

import (
	"fmt"
	"regexp"
	"time"

	"greentrain/internal/domain"
)

const dateLayout = "2006-01-02"

var serviceDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ServiceDate is a calendar date (YYYY-MM-DD) with no time-of-day or zone.
// It anchors all relative-time resolution for one run of a train.
type ServiceDate string

// ParseServiceDate validates the YYYY-MM-DD form, rejecting impossible
// dates such as 2025-02-30.
func ParseServiceDate(s string) (ServiceDate, error) {
	if !serviceDatePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return ServiceDate(s), nil
}

// MustServiceDate is for static data known to be well formed.
func MustServiceDate(s string) ServiceDate {
	d, err := ParseServiceDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d ServiceDate) String() string { return string(d) }

// AddDays returns the date shifted by n calendar days. Arithmetic runs on
// the proleptic Gregorian calendar; a date is not an instant, so no zone
// is involved here.
func (d ServiceDate) AddDays(n int) ServiceDate {
	t, _ := time.Parse(dateLayout, string(d))
	return ServiceDate(t.AddDate(0, 0, n).Format(dateLayout))
}

// CompareDates orders two dates: -1, 0 or 1. The canonical textual form
// sorts lexicographically, which keeps this allocation free.
func CompareDates(a, b ServiceDate) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// InRange reports whether d lies in [start, end], boundaries included.
func (d ServiceDate) InRange(start, end ServiceDate) bool {
	return CompareDates(d, start) >= 0 && CompareDates(d, end) <= 0
}

// Weekday returns ISO weekday 1..7 (Monday=1) of the date as observed in
// loc. Noon is used as the probe time so a DST transition at midnight can
// never shift the computed day.
func (d ServiceDate) Weekday(loc *time.Location) int {
	t, _ := time.Parse(dateLayout, string(d))
	local := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)
	wd := int(local.Weekday())
	if wd == 0 { // time.Sunday
		return 7
	}
	return wd
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location, now time.Time) ServiceDate {
	return ServiceDate(now.In(loc).Format(dateLayout))
}
