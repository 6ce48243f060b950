// Package timemath holds the validated time value types every other engine
// package builds on: relative clock times (HH:mm+dd), service dates
// (YYYY-MM-DD) and timezone-resolved instants. Values are constructed only
// through the parsing factories here so malformed input cannot travel
// further into the system.
package timemath

import (
	"fmt"
	"regexp"
	"strconv"

	"greentrain/internal/domain"
)

// relativeTimePattern matches HH:mm+dd, e.g. "08:35+00" or "00:40+01".
var relativeTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])\+([0-9]{2})$`)

// RelativeTime is a train-local clock time plus a day offset from the
// service date. It carries no timezone; resolution happens in ToInstant.
type RelativeTime struct {
	Hours     int
	Minutes   int
	DayOffset int
}

// ParseRelativeTime validates and parses the textual HH:mm+dd form.
func ParseRelativeTime(s string) (RelativeTime, error) {
	m := relativeTimePattern.FindStringSubmatch(s)
	if m == nil {
		return RelativeTime{}, fmt.Errorf("%w: %q", domain.ErrInvalidRelativeTime, s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	days, _ := strconv.Atoi(m[3])
	return RelativeTime{Hours: hours, Minutes: minutes, DayOffset: days}, nil
}

// MustRelativeTime is for static train data known to be well formed.
func MustRelativeTime(s string) RelativeTime {
	rt, err := ParseRelativeTime(s)
	if err != nil {
		panic(err)
	}
	return rt
}

// IsValidRelativeTime reports whether s matches the HH:mm+dd form.
func IsValidRelativeTime(s string) bool {
	return relativeTimePattern.MatchString(s)
}

// String renders the canonical HH:mm+dd form.
func (rt RelativeTime) String() string {
	return fmt.Sprintf("%02d:%02d+%02d", rt.Hours, rt.Minutes, rt.DayOffset)
}
