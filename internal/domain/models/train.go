// Package models defines the immutable domain records the engine operates
// on. Trains are supplied by the catalog and never mutated here; a snapshot
// is embedded into every issued ticket.
package models

import (
	"greentrain/internal/timemath"
)

type TrainStatus string

const (
	TrainDraft      TrainStatus = "draft"
	TrainHidden     TrainStatus = "hidden"
	TrainPaused     TrainStatus = "paused"
	TrainActive     TrainStatus = "active"
	TrainDeprecated TrainStatus = "deprecated"
	TrainArchived   TrainStatus = "archived"
)

// Station is one stop on a train's route. The first station has no arrival
// time and the last has no departure time.
type Station struct {
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	ArrivalTime   *timemath.RelativeTime  `json:"arrival_time,omitempty"`
	DepartureTime *timemath.RelativeTime  `json:"departure_time,omitempty"`
}

type RuleFreq string

const (
	FreqDaily  RuleFreq = "DAILY"
	FreqWeekly RuleFreq = "WEEKLY"
)

// CalendarRule contributes dates over a span: every day for DAILY, the
// listed ISO weekdays for WEEKLY. A WEEKLY rule without weekdays
// contributes nothing.
type CalendarRule struct {
	Freq     RuleFreq              `json:"freq"`
	Weekdays []int                 `json:"weekdays,omitempty"`
	Start    timemath.ServiceDate  `json:"start"`
	End      timemath.ServiceDate  `json:"end"`
}

// DateRange is a date span with an optional weekday filter.
type DateRange struct {
	Start    timemath.ServiceDate `json:"start"`
	End      timemath.ServiceDate `json:"end"`
	Weekdays []int                `json:"weekdays,omitempty"`
}

// CalendarSpec merges into a service-date set as
// (weekly pattern ∪ rules ∪ include_ranges ∪ includes) minus
// (exclude_ranges ∪ excludes). Exclusion always wins.
type CalendarSpec struct {
	Rules         []CalendarRule         `json:"rules,omitempty"`
	IncludeRanges []DateRange            `json:"include_ranges,omitempty"`
	ExcludeRanges []DateRange            `json:"exclude_ranges,omitempty"`
	Includes      []timemath.ServiceDate `json:"includes,omitempty"`
	Excludes      []timemath.ServiceDate `json:"excludes,omitempty"`
}

// Train is one themed-train template, immutable per version.
type Train struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Theme       string      `json:"theme,omitempty"`
	Description string      `json:"description,omitempty"`
	Timezone    string      `json:"timezone,omitempty"` // IANA name, default Asia/Shanghai
	Status      TrainStatus `json:"status"`
	StatusNote  string      `json:"status_note,omitempty"`

	Carriages       int `json:"carriages"`
	RowsPerCarriage int `json:"rows_per_carriage"`

	ServiceDays []int        `json:"service_days,omitempty"` // 1..7, Monday=1
	Calendar    CalendarSpec `json:"calendar"`

	SalesOpenRel                     *timemath.RelativeTime `json:"sales_open_rel,omitempty"`
	SalesCloseBeforeDepartureMinutes int                    `json:"sales_close_before_departure_minutes"`

	Stations []Station `json:"stations"`
}

// TimezoneOrDefault returns the train's zone name, falling back to the
// platform default.
func (t *Train) TimezoneOrDefault() string {
	if t.Timezone == "" {
		return timemath.DefaultTimezone
	}
	return t.Timezone
}

// StationAt returns the station at index, or nil when out of range.
func (t *Train) StationAt(idx int) *Station {
	if idx < 0 || idx >= len(t.Stations) {
		return nil
	}
	return &t.Stations[idx]
}

// TotalSeats is the full addressable seat count, carriages * rows * 5.
func (t *Train) TotalSeats() int {
	return t.Carriages * t.RowsPerCarriage * SeatLettersPerRow
}
