// Package calendar resolves which concrete dates a train template runs on.
// Inclusion sources (weekly pattern, rules, ranges, explicit dates) are
// merged first, then exclusions are subtracted; exclusion always wins.
package calendar

import (
	"sort"
	"time"

	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// Window is an inclusive date span to resolve over.
type Window struct {
	Start timemath.ServiceDate
	End   timemath.ServiceDate
}

// clip narrows [start, end] to the window. ok is false when the spans do
// not intersect, so callers never materialize dates outside the query.
func (w Window) clip(start, end timemath.ServiceDate) (timemath.ServiceDate, timemath.ServiceDate, bool) {
	if timemath.CompareDates(start, w.Start) < 0 {
		start = w.Start
	}
	if timemath.CompareDates(end, w.End) > 0 {
		end = w.End
	}
	return start, end, timemath.CompareDates(start, end) <= 0
}

func weekdayIn(list []int, wd int) bool {
	for _, d := range list {
		if d == wd {
			return true
		}
	}
	return false
}

// eachDate walks [start, end] inclusive.
func eachDate(start, end timemath.ServiceDate, fn func(timemath.ServiceDate)) {
	for d := start; timemath.CompareDates(d, end) <= 0; d = d.AddDays(1) {
		fn(d)
	}
}

func addRange(set map[timemath.ServiceDate]struct{}, r models.DateRange, w Window, loc *time.Location) {
	start, end, ok := w.clip(r.Start, r.End)
	if !ok {
		return
	}
	eachDate(start, end, func(d timemath.ServiceDate) {
		if len(r.Weekdays) == 0 || weekdayIn(r.Weekdays, d.Weekday(loc)) {
			set[d] = struct{}{}
		}
	})
}

func removeRange(set map[timemath.ServiceDate]struct{}, r models.DateRange, w Window, loc *time.Location) {
	start, end, ok := w.clip(r.Start, r.End)
	if !ok {
		return
	}
	eachDate(start, end, func(d timemath.ServiceDate) {
		if len(r.Weekdays) == 0 || weekdayIn(r.Weekdays, d.Weekday(loc)) {
			delete(set, d)
		}
	})
}

func addRule(set map[timemath.ServiceDate]struct{}, rule models.CalendarRule, w Window, loc *time.Location) {
	start, end, ok := w.clip(rule.Start, rule.End)
	if !ok {
		return
	}
	switch rule.Freq {
	case models.FreqDaily:
		eachDate(start, end, func(d timemath.ServiceDate) { set[d] = struct{}{} })
	case models.FreqWeekly:
		// A WEEKLY rule with no weekdays contributes nothing.
		if len(rule.Weekdays) == 0 {
			return
		}
		eachDate(start, end, func(d timemath.ServiceDate) {
			if weekdayIn(rule.Weekdays, d.Weekday(loc)) {
				set[d] = struct{}{}
			}
		})
	}
}

// Resolve returns the sorted service dates of train within [start, end]
// inclusive. Trains in draft or archived state never run.
func Resolve(train *models.Train, start, end timemath.ServiceDate) ([]timemath.ServiceDate, error) {
	if train.Status == models.TrainDraft || train.Status == models.TrainArchived {
		return nil, nil
	}
	if timemath.CompareDates(start, end) > 0 {
		return nil, nil
	}
	loc, err := timemath.Location(train.TimezoneOrDefault())
	if err != nil {
		return nil, err
	}

	w := Window{Start: start, End: end}
	set := map[timemath.ServiceDate]struct{}{}

	if len(train.ServiceDays) > 0 {
		eachDate(start, end, func(d timemath.ServiceDate) {
			if weekdayIn(train.ServiceDays, d.Weekday(loc)) {
				set[d] = struct{}{}
			}
		})
	}
	for _, r := range train.Calendar.IncludeRanges {
		addRange(set, r, w, loc)
	}
	for _, rule := range train.Calendar.Rules {
		addRule(set, rule, w, loc)
	}
	for _, d := range train.Calendar.Includes {
		if d.InRange(start, end) {
			set[d] = struct{}{}
		}
	}

	// Exclusions run last and always win.
	for _, r := range train.Calendar.ExcludeRanges {
		removeRange(set, r, w, loc)
	}
	for _, d := range train.Calendar.Excludes {
		delete(set, d)
	}

	out := make([]timemath.ServiceDate, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// IsRunningOn reports whether date is a service day of train.
func IsRunningOn(train *models.Train, date timemath.ServiceDate) (bool, error) {
	dates, err := Resolve(train, date, date)
	if err != nil {
		return false, err
	}
	return len(dates) > 0, nil
}

// DefaultLookaheadDays bounds NextServiceDate's search.
const DefaultLookaheadDays = 365

// NextServiceDate returns the earliest service date at or after fromDate
// within lookaheadDays, or ok=false when none exists.
func NextServiceDate(train *models.Train, fromDate timemath.ServiceDate, lookaheadDays int) (timemath.ServiceDate, bool, error) {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}
	dates, err := Resolve(train, fromDate, fromDate.AddDays(lookaheadDays))
	if err != nil {
		return "", false, err
	}
	if len(dates) == 0 {
		return "", false, nil
	}
	return dates[0], true, nil
}

// Upcoming resolves the next n days starting from today in the train's
// zone.
func Upcoming(train *models.Train, today timemath.ServiceDate, days int) ([]timemath.ServiceDate, error) {
	if days <= 0 {
		days = 90
	}
	return Resolve(train, today, today.AddDays(days-1))
}
