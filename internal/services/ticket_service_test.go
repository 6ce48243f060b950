package services

import (
	"errors"
	"testing"
	"time"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
)

func seedTicket(id, userID string, status models.TicketStatus) models.Ticket {
	return models.Ticket{
		ID:            id,
		UserID:        userID,
		TrainID:       "K7701",
		ServiceDate:   "2025-08-13",
		Seat:          models.Seat{Carriage: 1, Row: 1, Letter: "A"},
		DepartAbsUTC:  time.Date(2025, 8, 13, 1, 0, 0, 0, time.UTC),
		ArrivalAbsUTC: time.Date(2025, 8, 13, 4, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestTicketLifecycle(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{seedTicket("tkt_1", "user-1", models.TicketPendingPayment)}}
	svc := TicketService{Tickets: store}

	steps := []struct {
		name string
		fn   func() (models.Ticket, error)
		want models.TicketStatus
	}{
		{"pay", func() (models.Ticket, error) { return svc.Pay("tkt_1", "user-1") }, models.TicketPaid},
		{"check in", func() (models.Ticket, error) { return svc.CheckIn("tkt_1", "user-1") }, models.TicketCheckedIn},
		{"board", func() (models.Ticket, error) { return svc.Board("tkt_1", "user-1") }, models.TicketBoarded},
		{"complete", func() (models.Ticket, error) { return svc.Complete("tkt_1", "user-1") }, models.TicketCompleted},
	}
	for _, step := range steps {
		got, err := step.fn()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.name, got.Status, step.want)
		}
	}
}

func TestTicketInvalidTransitions(t *testing.T) {
	cases := []struct {
		from models.TicketStatus
		call func(TicketService) (models.Ticket, error)
	}{
		{models.TicketPendingPayment, func(s TicketService) (models.Ticket, error) { return s.Board("tkt_1", "user-1") }},
		{models.TicketPendingPayment, func(s TicketService) (models.Ticket, error) { return s.Refund("tkt_1", "user-1") }},
		{models.TicketCancelled, func(s TicketService) (models.Ticket, error) { return s.Pay("tkt_1", "user-1") }},
		{models.TicketCompleted, func(s TicketService) (models.Ticket, error) { return s.Refund("tkt_1", "user-1") }},
		{models.TicketBoarded, func(s TicketService) (models.Ticket, error) { return s.Cancel("tkt_1", "user-1") }},
	}
	for _, tc := range cases {
		store := &fakeStore{tickets: []models.Ticket{seedTicket("tkt_1", "user-1", tc.from)}}
		_, err := tc.call(TicketService{Tickets: store})
		if code := domain.ConflictCode(err); code != "INVALID_TRANSITION" {
			t.Fatalf("from %s: code = %q, want INVALID_TRANSITION (err=%v)", tc.from, code, err)
		}
	}
}

func TestTicketTransitionIdempotent(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{seedTicket("tkt_1", "user-1", models.TicketPaid)}}
	svc := TicketService{Tickets: store}

	got, err := svc.Pay("tkt_1", "user-1")
	if err != nil {
		t.Fatalf("repeat pay: %v", err)
	}
	if got.Status != models.TicketPaid {
		t.Fatalf("status = %s, want paid", got.Status)
	}
}

func TestTicketCancelAndRefundReleaseSeat(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{
		seedTicket("tkt_1", "user-1", models.TicketPaid),
		seedTicket("tkt_2", "user-2", models.TicketPaid),
	}}
	svc := TicketService{Tickets: store}

	if _, err := svc.Refund("tkt_1", "user-1"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	occupied, err := store.OccupiedSeats("K7701", "2025-08-13")
	if err != nil {
		t.Fatalf("occupied: %v", err)
	}
	if len(occupied) != 1 || occupied[0].UserID != "user-2" {
		t.Fatalf("occupied = %+v, want only user-2", occupied)
	}
}

func TestTicketOwnership(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{seedTicket("tkt_1", "user-1", models.TicketPaid)}}
	svc := TicketService{Tickets: store}

	_, err := svc.Get("tkt_1", "user-2")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("foreign get: got %v, want not-found", err)
	}
	if _, err := svc.Cancel("tkt_1", "user-2"); !errors.As(err, &nf) {
		t.Fatalf("foreign cancel: got %v, want not-found", err)
	}
}

func TestBoardRejectsSecondTrain(t *testing.T) {
	first := seedTicket("tkt_1", "user-1", models.TicketBoarded)
	second := seedTicket("tkt_2", "user-1", models.TicketCheckedIn)
	second.TrainID = "K8802"
	store := &fakeStore{tickets: []models.Ticket{first, second}}
	svc := TicketService{Tickets: store}

	_, err := svc.Board("tkt_2", "user-1")
	if code := domain.ConflictCode(err); code != "ALREADY_ONBOARD" {
		t.Fatalf("code = %q, want ALREADY_ONBOARD (err=%v)", code, err)
	}
}

func TestCurrentTrain(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{
		seedTicket("tkt_1", "user-1", models.TicketCompleted),
		seedTicket("tkt_2", "user-1", models.TicketBoarded),
	}}
	svc := TicketService{Tickets: store}

	got, ok, err := svc.CurrentTrain("user-1")
	if err != nil || !ok {
		t.Fatalf("CurrentTrain: ok=%v err=%v", ok, err)
	}
	if got.ID != "tkt_2" {
		t.Fatalf("current = %s, want tkt_2", got.ID)
	}

	_, ok, err = svc.CurrentTrain("user-2")
	if err != nil {
		t.Fatalf("CurrentTrain empty: %v", err)
	}
	if ok {
		t.Fatal("expected no current train for user-2")
	}
}

func TestSeatNeighbors(t *testing.T) {
	mine := seedTicket("tkt_1", "user-1", models.TicketPaid)
	sameRow := seedTicket("tkt_2", "user-2", models.TicketPaid)
	sameRow.Seat = models.Seat{Carriage: 1, Row: 1, Letter: "B"}
	otherRow := seedTicket("tkt_3", "user-3", models.TicketPaid)
	otherRow.Seat = models.Seat{Carriage: 1, Row: 2, Letter: "A"}
	store := &fakeStore{tickets: []models.Ticket{mine, sameRow, otherRow}}
	svc := TicketService{Tickets: store}

	neighbors, err := svc.SeatNeighbors("tkt_1", "user-1")
	if err != nil {
		t.Fatalf("SeatNeighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].UserID != "user-2" {
		t.Fatalf("neighbors = %+v, want only user-2", neighbors)
	}
}

func TestVerifyPNR(t *testing.T) {
	tk := seedTicket("tkt_1", "user-1", models.TicketPaid)
	tk.PNRCode = "AB12CD"
	store := &fakeStore{tickets: []models.Ticket{tk}}
	svc := TicketService{Tickets: store}

	if _, err := svc.VerifyPNR("tkt_1", "AB12CD"); err != nil {
		t.Fatalf("VerifyPNR: %v", err)
	}
	if _, err := svc.VerifyPNR("tkt_1", "XXXXXX"); !domain.IsValidation(err) {
		t.Fatalf("wrong pnr: got %v, want validation error", err)
	}

	if err := store.UpdateStatus("tkt_1", models.TicketCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := svc.VerifyPNR("tkt_1", "AB12CD")
	if code := domain.ConflictCode(err); code != "TICKET_NOT_ACTIVE" {
		t.Fatalf("cancelled ticket: code = %q (err=%v)", code, err)
	}
}
