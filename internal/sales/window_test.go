package sales

import (
	"errors"
	"testing"
	"time"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

func rel(s string) *timemath.RelativeTime {
	rt := timemath.MustRelativeTime(s)
	return &rt
}

// salesTrain runs Mon/Wed/Fri, opens sales 09:00 local, closes 10 minutes
// before departure at 14:35 local.
func salesTrain() *models.Train {
	return &models.Train{
		ID:              "K7701",
		Timezone:        "Asia/Shanghai",
		Status:          models.TrainActive,
		Carriages:       2,
		RowsPerCarriage: 10,
		ServiceDays:     []int{1, 3, 5},
		SalesOpenRel:    rel("09:00+00"),
		SalesCloseBeforeDepartureMinutes: 10,
		Stations: []models.Station{
			{Name: "Origin", DepartureTime: rel("14:35+00")},
			{Name: "Middle", ArrivalTime: rel("16:05+00"), DepartureTime: rel("16:10+00")},
			{Name: "Terminus", ArrivalTime: rel("18:20+00")},
		},
	}
}

func localShanghai(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := timemath.Location("Asia/Shanghai")
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestCloseAtSubtractsLeadMinutes(t *testing.T) {
	train := salesTrain()
	closeAt, err := CloseAt(train, "2025-08-11", 0)
	if err != nil {
		t.Fatalf("CloseAt: %v", err)
	}
	if got := closeAt.LocalISO(); got != "2025-08-11T14:25:00+08:00" {
		t.Fatalf("close instant mismatch: %s", got)
	}
}

func TestCloseAtRejectsTerminalStation(t *testing.T) {
	train := salesTrain()
	if _, err := CloseAt(train, "2025-08-11", 2); !errors.Is(err, domain.ErrInvalidStationIndex) {
		t.Fatalf("expected ErrInvalidStationIndex, got %v", err)
	}
	if _, err := CloseAt(train, "2025-08-11", 5); !errors.Is(err, domain.ErrInvalidStationIndex) {
		t.Fatalf("expected ErrInvalidStationIndex for out of range, got %v", err)
	}
}

func TestOpenAtNilWhenUnconfigured(t *testing.T) {
	train := salesTrain()
	train.SalesOpenRel = nil
	openAt, err := OpenAt(train, "2025-08-11")
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if openAt != nil {
		t.Fatalf("expected always-open (nil), got %v", openAt.LocalISO())
	}
}

func TestStatusProgression(t *testing.T) {
	train := salesTrain()
	cases := []struct {
		at   string
		want Status
	}{
		{"2025-08-11T08:00:00", StatusNotStarted},
		{"2025-08-11T10:00:00", StatusAvailable},
		{"2025-08-11T14:25:00", StatusClosed}, // boundary: now >= closeAt
		{"2025-08-11T14:26:00", StatusClosed},
	}
	for _, tc := range cases {
		got, err := GetStatus(train, localShanghai(t, tc.at), "2025-08-11", 0)
		if err != nil {
			t.Fatalf("%s: %v", tc.at, err)
		}
		if got != tc.want {
			t.Fatalf("at %s: got %s want %s", tc.at, got, tc.want)
		}
	}
}

func TestStatusPriorityOrder(t *testing.T) {
	now := localShanghai(t, "2025-08-11T10:00:00")

	train := salesTrain()
	train.Status = models.TrainPaused
	if got, _ := GetStatus(train, now, "2025-08-11", 0); got != StatusPaused {
		t.Fatalf("paused train: got %s", got)
	}

	train = salesTrain()
	train.Status = models.TrainDraft
	if got, _ := GetStatus(train, now, "2025-08-11", 0); got != StatusUnavailable {
		t.Fatalf("draft train: got %s", got)
	}

	// 2025-08-12 is a Tuesday, not a service day.
	train = salesTrain()
	if got, _ := GetStatus(train, now, "2025-08-12", 0); got != StatusUnavailable {
		t.Fatalf("non-service day: got %s", got)
	}

	// hidden and deprecated trains stay sellable.
	for _, status := range []models.TrainStatus{models.TrainHidden, models.TrainDeprecated} {
		train = salesTrain()
		train.Status = status
		if got, _ := GetStatus(train, now, "2025-08-11", 0); got != StatusAvailable {
			t.Fatalf("%s train: got %s", status, got)
		}
	}
}

func TestIsOnSale(t *testing.T) {
	train := salesTrain()
	onSale, err := IsOnSale(train, localShanghai(t, "2025-08-11T12:00:00"), "2025-08-11", 0)
	if err != nil || !onSale {
		t.Fatalf("expected on sale, got %v err=%v", onSale, err)
	}
	onSale, err = IsOnSale(train, localShanghai(t, "2025-08-11T08:00:00"), "2025-08-11", 0)
	if err != nil || onSale {
		t.Fatalf("expected not on sale before open, got %v err=%v", onSale, err)
	}
}

func TestTimeRemainingClampsToZero(t *testing.T) {
	train := salesTrain()
	d, err := TimeUntilClose(train, localShanghai(t, "2025-08-11T15:00:00"), "2025-08-11", 0)
	if err != nil {
		t.Fatalf("TimeUntilClose: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected zero after close, got %v", d)
	}

	d, ok, err := TimeUntilOpen(train, localShanghai(t, "2025-08-11T08:00:00"), "2025-08-11")
	if err != nil || !ok {
		t.Fatalf("TimeUntilOpen: ok=%v err=%v", ok, err)
	}
	if d != time.Hour {
		t.Fatalf("expected one hour until open, got %v", d)
	}

	train.SalesOpenRel = nil
	if _, ok, _ := TimeUntilOpen(train, localShanghai(t, "2025-08-11T08:00:00"), "2025-08-11"); ok {
		t.Fatalf("always-open train should report no open countdown")
	}
}

func TestGetWindow(t *testing.T) {
	train := salesTrain()
	w, err := GetWindow(train, "2025-08-11", 1)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if w.OpenAt == nil || w.OpenAt.LocalISO() != "2025-08-11T09:00:00+08:00" {
		t.Fatalf("open instant mismatch: %+v", w.OpenAt)
	}
	// Middle station departs 16:10; close 10 minutes earlier.
	if got := w.CloseAt.LocalISO(); got != "2025-08-11T16:00:00+08:00" {
		t.Fatalf("close instant mismatch: %s", got)
	}
}
