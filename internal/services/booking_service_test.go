package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

func rel(t *testing.T, s string) *timemath.RelativeTime {
	t.Helper()
	rt, err := timemath.ParseRelativeTime(s)
	if err != nil {
		t.Fatalf("parse relative time %q: %v", s, err)
	}
	return &rt
}

func testTrain(t *testing.T) *models.Train {
	t.Helper()
	return &models.Train{
		ID:                               "K7701",
		Name:                             "Galaxy Express",
		Timezone:                         "Asia/Shanghai",
		Status:                           models.TrainActive,
		Carriages:                        2,
		RowsPerCarriage:                  2,
		ServiceDays:                      []int{1, 2, 3, 4, 5, 6, 7},
		SalesCloseBeforeDepartureMinutes: 5,
		Stations: []models.Station{
			{Name: "West Terminal", DepartureTime: rel(t, "09:00+00")},
			{Name: "Central", ArrivalTime: rel(t, "10:30+00"), DepartureTime: rel(t, "10:35+00")},
			{Name: "East Terminal", ArrivalTime: rel(t, "12:00+00")},
		},
	}
}

type fakeCatalog struct {
	trains map[string]*models.Train
}

func (f fakeCatalog) GetByID(id string) (*models.Train, error) {
	tr, ok := f.trains[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "train"}
	}
	return tr, nil
}

func (f fakeCatalog) ListActive() ([]models.Train, error) {
	out := []models.Train{}
	for _, tr := range f.trains {
		if tr.Status == models.TrainActive || tr.Status == models.TrainDeprecated {
			out = append(out, *tr)
		}
	}
	return out, nil
}

type fakeStore struct {
	tickets   []models.Ticket
	insertErr error
}

func (f *fakeStore) Insert(t *models.Ticket) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.tickets = append(f.tickets, *t)
	return nil
}

func (f *fakeStore) GetByID(id string) (models.Ticket, error) {
	for _, t := range f.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
}

func (f *fakeStore) ListByUser(userID string) ([]models.Ticket, error) {
	out := []models.Ticket{}
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) OccupiedSeats(trainID string, serviceDate timemath.ServiceDate) ([]models.OccupiedSeat, error) {
	out := []models.OccupiedSeat{}
	for _, t := range f.tickets {
		if t.TrainID != trainID || t.ServiceDate != serviceDate {
			continue
		}
		if t.Status == models.TicketCancelled || t.Status == models.TicketRefunded {
			continue
		}
		out = append(out, models.OccupiedSeat{Seat: t.Seat, UserID: t.UserID})
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(id string, status models.TicketStatus) error {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			f.tickets[i].Status = status
			return nil
		}
	}
	return domain.NotFoundError{Resource: "ticket"}
}

func newBookingService(t *testing.T, trains ...*models.Train) (BookingService, *fakeStore) {
	t.Helper()
	catalog := fakeCatalog{trains: map[string]*models.Train{}}
	for _, tr := range trains {
		catalog.trains[tr.ID] = tr
	}
	store := &fakeStore{}
	svc := BookingService{
		Trains:  catalog,
		Tickets: store,
		Clock:   FixedClock{At: time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)},
	}
	return svc, store
}

func baseRequest() BookingRequest {
	return BookingRequest{
		TrainID:          "K7701",
		ServiceDate:      "2025-08-13",
		FromStationIndex: 0,
		ToStationIndex:   2,
		SeatStrategy:     "sequential",
		UserID:           "user-1",
	}
}

func TestBookIssuesTicket(t *testing.T) {
	svc, store := newBookingService(t, testTrain(t))

	ticket, err := svc.Book(baseRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if !strings.HasPrefix(ticket.ID, "tkt_") {
		t.Fatalf("ticket id = %q, want tkt_ prefix", ticket.ID)
	}
	if ticket.Status != models.TicketPendingPayment {
		t.Fatalf("status = %s, want pending_payment", ticket.Status)
	}
	if got := ticket.Seat.Key(); got != "1-1-A" {
		t.Fatalf("seat = %s, want 1-1-A", got)
	}
	if ticket.DepartAbsLocal != "2025-08-13T09:00:00+08:00" {
		t.Fatalf("depart local = %s", ticket.DepartAbsLocal)
	}
	if ticket.ArrivalAbsLocal != "2025-08-13T12:00:00+08:00" {
		t.Fatalf("arrival local = %s", ticket.ArrivalAbsLocal)
	}
	wantDepartUTC := time.Date(2025, 8, 13, 1, 0, 0, 0, time.UTC)
	if !ticket.DepartAbsUTC.Equal(wantDepartUTC) {
		t.Fatalf("depart utc = %v, want %v", ticket.DepartAbsUTC, wantDepartUTC)
	}
	if want := "train-K7701-2025-08-13-global_2025-08-13T12:00:00+08:00"; ticket.Rooms.Global != want {
		t.Fatalf("global room = %q, want %q", ticket.Rooms.Global, want)
	}
	if len(ticket.PNRCode) != 6 {
		t.Fatalf("pnr = %q, want 6 chars", ticket.PNRCode)
	}
	if !strings.Contains(ticket.QRCodePayload, ticket.ID) {
		t.Fatalf("qr payload %q does not reference ticket id", ticket.QRCodePayload)
	}
	for _, token := range []string{ticket.JoinTokens.Global, ticket.JoinTokens.Carriage, ticket.JoinTokens.Row, ticket.JoinTokens.Seat} {
		if token == "" {
			t.Fatal("empty join token")
		}
	}
	if ticket.TrainSnapshot == nil || ticket.TrainSnapshot.ID != "K7701" {
		t.Fatal("train snapshot missing")
	}
	if len(store.tickets) != 1 {
		t.Fatalf("stored tickets = %d, want 1", len(store.tickets))
	}
}

func TestBookSequentialFillsInOrder(t *testing.T) {
	svc, _ := newBookingService(t, testTrain(t))

	want := []string{"1-1-A", "1-1-B", "1-1-C"}
	for i, label := range want {
		req := baseRequest()
		req.UserID = "user-" + string(rune('a'+i))
		ticket, err := svc.Book(req)
		if err != nil {
			t.Fatalf("Book #%d: %v", i, err)
		}
		if got := ticket.Seat.Key(); got != label {
			t.Fatalf("seat #%d = %s, want %s", i, got, label)
		}
	}
}

func TestBookRejectsNonServiceDay(t *testing.T) {
	train := testTrain(t)
	train.ServiceDays = []int{1} // Mondays only; 2025-08-13 is a Wednesday
	svc, _ := newBookingService(t, train)

	_, err := svc.Book(baseRequest())
	if code := domain.ConflictCode(err); code != "NOT_ON_SALE" {
		t.Fatalf("conflict code = %q, want NOT_ON_SALE (err=%v)", code, err)
	}
}

func TestBookBeforeSalesOpen(t *testing.T) {
	train := testTrain(t)
	train.SalesOpenRel = rel(t, "12:00+00")
	svc, _ := newBookingService(t, train)
	// Sales open 2025-08-13 12:00 local, which is 04:00 UTC; clock is a
	// day earlier.
	_, err := svc.Book(baseRequest())
	if code := domain.ConflictCode(err); code != "SALE_NOT_OPEN" {
		t.Fatalf("conflict code = %q, want SALE_NOT_OPEN (err=%v)", code, err)
	}
}

func TestBookAfterSalesClose(t *testing.T) {
	svc, _ := newBookingService(t, testTrain(t))
	// Departure 09:00 local is 01:00 UTC; close lead 5 minutes.
	svc.Clock = FixedClock{At: time.Date(2025, 8, 13, 0, 55, 0, 0, time.UTC)}

	_, err := svc.Book(baseRequest())
	if code := domain.ConflictCode(err); code != "SALE_CLOSED" {
		t.Fatalf("conflict code = %q, want SALE_CLOSED (err=%v)", code, err)
	}
}

func TestBookRejectsSecondSeatOnSameRun(t *testing.T) {
	svc, store := newBookingService(t, testTrain(t))

	first, err := svc.Book(baseRequest())
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	if err := store.UpdateStatus(first.ID, models.TicketPaid); err != nil {
		t.Fatalf("pay: %v", err)
	}

	_, err = svc.Book(baseRequest())
	if code := domain.ConflictCode(err); code != "USER_ALREADY_ON_TRAIN" {
		t.Fatalf("conflict code = %q, want USER_ALREADY_ON_TRAIN (err=%v)", code, err)
	}
}

func TestBookRejectsOverlappingTrip(t *testing.T) {
	other := testTrain(t)
	other.ID = "K8802"
	svc, store := newBookingService(t, testTrain(t), other)

	first, err := svc.Book(baseRequest())
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	if err := store.UpdateStatus(first.ID, models.TicketPaid); err != nil {
		t.Fatalf("pay: %v", err)
	}

	req := baseRequest()
	req.TrainID = "K8802"
	_, err = svc.Book(req)
	if code := domain.ConflictCode(err); code != "USER_ALREADY_ON_TRIP" {
		t.Fatalf("conflict code = %q, want USER_ALREADY_ON_TRIP (err=%v)", code, err)
	}
}

func TestBookPendingTicketDoesNotBlockOtherTrain(t *testing.T) {
	other := testTrain(t)
	other.ID = "K8802"
	svc, _ := newBookingService(t, testTrain(t), other)

	if _, err := svc.Book(baseRequest()); err != nil {
		t.Fatalf("first Book: %v", err)
	}

	req := baseRequest()
	req.TrainID = "K8802"
	if _, err := svc.Book(req); err != nil {
		t.Fatalf("second Book on other train: %v", err)
	}
}

func TestBookSoldOut(t *testing.T) {
	train := testTrain(t)
	train.Carriages = 1
	train.RowsPerCarriage = 1 // 5 seats total
	svc, _ := newBookingService(t, train)

	for i := 0; i < 5; i++ {
		req := baseRequest()
		req.UserID = "rider-" + string(rune('a'+i))
		if _, err := svc.Book(req); err != nil {
			t.Fatalf("Book #%d: %v", i, err)
		}
	}

	req := baseRequest()
	req.UserID = "rider-z"
	_, err := svc.Book(req)
	if code := domain.ConflictCode(err); code != "SOLD_OUT" {
		t.Fatalf("conflict code = %q, want SOLD_OUT (err=%v)", code, err)
	}
}

func TestBookValidation(t *testing.T) {
	svc, _ := newBookingService(t, testTrain(t))

	req := baseRequest()
	req.FromStationIndex = 2
	req.ToStationIndex = 1
	if _, err := svc.Book(req); !domain.IsValidation(err) {
		t.Fatalf("reversed segment: got %v, want validation error", err)
	}

	req = baseRequest()
	req.ServiceDate = "2025/08/13"
	if _, err := svc.Book(req); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("bad date: got %v", err)
	}

	req = baseRequest()
	req.SeatStrategy = "coin_flip"
	if _, err := svc.Book(req); !errors.Is(err, domain.ErrUnknownSeatStrategy) {
		t.Fatalf("bad strategy: got %v", err)
	}

	req = baseRequest()
	req.UserID = "  "
	if _, err := svc.Book(req); !domain.IsValidation(err) {
		t.Fatalf("blank user: got %v, want validation error", err)
	}

	req = baseRequest()
	req.FromStationIndex = 0
	req.ToStationIndex = 5
	if _, err := svc.Book(req); !domain.IsValidation(err) {
		t.Fatalf("out-of-range station: got %v, want validation error", err)
	}
}

func TestBookSeatRaceMapsToRetry(t *testing.T) {
	svc, store := newBookingService(t, testTrain(t))
	store.insertErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	_, err := svc.Book(baseRequest())
	if code := domain.ConflictCode(err); code != "SEAT_CONFLICT_RETRY" {
		t.Fatalf("conflict code = %q, want SEAT_CONFLICT_RETRY (err=%v)", code, err)
	}
}

func TestBookUnknownTrain(t *testing.T) {
	svc, _ := newBookingService(t, testTrain(t))

	req := baseRequest()
	req.TrainID = "ghost"
	_, err := svc.Book(req)
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want not-found", err)
	}
}

func TestProbeSales(t *testing.T) {
	train := testTrain(t)
	train.SalesOpenRel = rel(t, "06:00+00")
	svc, _ := newBookingService(t, train)
	// 07:00 local on the service day: open, 1h55m before close.
	svc.Clock = FixedClock{At: time.Date(2025, 8, 12, 23, 0, 0, 0, time.UTC)}

	probe, err := svc.ProbeSales("K7701", "2025-08-13", 0)
	if err != nil {
		t.Fatalf("ProbeSales: %v", err)
	}
	if !probe.OnSale {
		t.Fatalf("on_sale = false, status = %s", probe.Status)
	}
	if probe.OpenAt != "2025-08-13T06:00:00+08:00" {
		t.Fatalf("open_at = %s", probe.OpenAt)
	}
	if probe.CloseAt != "2025-08-13T08:55:00+08:00" {
		t.Fatalf("close_at = %s", probe.CloseAt)
	}
	if want := int64(115 * 60); probe.SecsToEnd != want {
		t.Fatalf("seconds_until_close = %d, want %d", probe.SecsToEnd, want)
	}
}

func TestServiceDatesAndNext(t *testing.T) {
	train := testTrain(t)
	train.ServiceDays = []int{1, 3, 5}
	svc, _ := newBookingService(t, train)

	dates, err := svc.ServiceDates("K7701", "2025-08-11", "2025-08-17")
	if err != nil {
		t.Fatalf("ServiceDates: %v", err)
	}
	want := []timemath.ServiceDate{"2025-08-11", "2025-08-13", "2025-08-15"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}

	next, ok, err := svc.NextServiceDate("K7701", "2025-08-12")
	if err != nil || !ok {
		t.Fatalf("NextServiceDate: ok=%v err=%v", ok, err)
	}
	if next != "2025-08-13" {
		t.Fatalf("next = %s, want 2025-08-13", next)
	}
}
