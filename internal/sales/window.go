// Package sales computes the time-boxed sales window for one
// train/date/boarding-station triple and classifies "now" against it.
package sales

import (
	"fmt"
	"time"

	"greentrain/internal/calendar"
	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// Status is the sale state of a train/date/segment.
type Status string

const (
	StatusPaused      Status = "paused"
	StatusUnavailable Status = "unavailable"
	StatusNotStarted  Status = "not_started"
	StatusClosed      Status = "closed"
	StatusAvailable   Status = "available"
)

// OpenAt returns the instant sales open for serviceDate, or nil when the
// train has no configured open time (always open).
func OpenAt(train *models.Train, serviceDate timemath.ServiceDate) (*timemath.Instant, error) {
	if train.SalesOpenRel == nil {
		return nil, nil
	}
	inst, err := timemath.ToInstant(serviceDate, *train.SalesOpenRel, train.TimezoneOrDefault())
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// CloseAt returns the instant sales close for boarding at fromStationIndex:
// the station's local departure instant minus the configured lead minutes.
// The terminal station has no departure time and is not a valid boarding
// point.
func CloseAt(train *models.Train, serviceDate timemath.ServiceDate, fromStationIndex int) (timemath.Instant, error) {
	station := train.StationAt(fromStationIndex)
	if station == nil || station.DepartureTime == nil {
		return timemath.Instant{}, fmt.Errorf("%w: %d", domain.ErrInvalidStationIndex, fromStationIndex)
	}
	depart, err := timemath.ToInstant(serviceDate, *station.DepartureTime, train.TimezoneOrDefault())
	if err != nil {
		return timemath.Instant{}, err
	}
	lead := time.Duration(train.SalesCloseBeforeDepartureMinutes) * time.Minute
	return depart.Add(-lead), nil
}

// GetStatus classifies now against the sales window. Priority: paused
// train, then unavailable (dormant status or not a service day), then
// not-yet-open, then closed, else available.
func GetStatus(train *models.Train, now time.Time, serviceDate timemath.ServiceDate, fromStationIndex int) (Status, error) {
	if train.Status == models.TrainPaused {
		return StatusPaused, nil
	}
	if train.Status == models.TrainDraft || train.Status == models.TrainArchived {
		return StatusUnavailable, nil
	}
	running, err := calendar.IsRunningOn(train, serviceDate)
	if err != nil {
		return "", err
	}
	if !running {
		return StatusUnavailable, nil
	}

	openAt, err := OpenAt(train, serviceDate)
	if err != nil {
		return "", err
	}
	if openAt != nil && now.Before(openAt.UTC()) {
		return StatusNotStarted, nil
	}

	closeAt, err := CloseAt(train, serviceDate, fromStationIndex)
	if err != nil {
		return "", err
	}
	if !now.Before(closeAt.UTC()) {
		return StatusClosed, nil
	}
	return StatusAvailable, nil
}

// IsOnSale reports whether the status is available.
func IsOnSale(train *models.Train, now time.Time, serviceDate timemath.ServiceDate, fromStationIndex int) (bool, error) {
	st, err := GetStatus(train, now, serviceDate, fromStationIndex)
	if err != nil {
		return false, err
	}
	return st == StatusAvailable, nil
}

// TimeUntilClose is the remaining sale time, clamped at zero.
func TimeUntilClose(train *models.Train, now time.Time, serviceDate timemath.ServiceDate, fromStationIndex int) (time.Duration, error) {
	closeAt, err := CloseAt(train, serviceDate, fromStationIndex)
	if err != nil {
		return 0, err
	}
	return closeAt.Sub(now), nil
}

// TimeUntilOpen is the remaining wait before sales open; ok is false for
// trains without a configured open time.
func TimeUntilOpen(train *models.Train, now time.Time, serviceDate timemath.ServiceDate) (time.Duration, bool, error) {
	openAt, err := OpenAt(train, serviceDate)
	if err != nil {
		return 0, false, err
	}
	if openAt == nil {
		return 0, false, nil
	}
	return openAt.Sub(now), true, nil
}

// Window bundles both boundary instants for an API response.
type Window struct {
	OpenAt  *timemath.Instant
	CloseAt timemath.Instant
}

// GetWindow returns the open/close pair for a train/date/segment.
func GetWindow(train *models.Train, serviceDate timemath.ServiceDate, fromStationIndex int) (Window, error) {
	openAt, err := OpenAt(train, serviceDate)
	if err != nil {
		return Window{}, err
	}
	closeAt, err := CloseAt(train, serviceDate, fromStationIndex)
	if err != nil {
		return Window{}, err
	}
	return Window{OpenAt: openAt, CloseAt: closeAt}, nil
}
