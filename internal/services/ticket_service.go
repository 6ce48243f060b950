package services

import (
	"fmt"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/trips"
	"greentrain/internal/utils"
)

// ticketTransitions is the lifecycle graph. Anything not listed is
// rejected.
var ticketTransitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketPendingPayment: {models.TicketPaid, models.TicketCancelled},
	models.TicketPaid:           {models.TicketCheckedIn, models.TicketCancelled, models.TicketRefunded},
	models.TicketCheckedIn:      {models.TicketBoarded},
	models.TicketBoarded:        {models.TicketCompleted},
}

func transitionAllowed(from, to models.TicketStatus) bool {
	for _, next := range ticketTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TicketService owns reads and lifecycle transitions on issued tickets.
type TicketService struct {
	Tickets   TicketStore
	RequestID string
}

// Get loads one ticket and enforces ownership.
func (s TicketService) Get(id, userID string) (models.Ticket, error) {
	t, err := s.Tickets.GetByID(id)
	if err != nil {
		return t, err
	}
	if t.UserID != userID {
		return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	return t, nil
}

// ListMine returns a rider's tickets, newest first.
func (s TicketService) ListMine(userID string) ([]models.Ticket, error) {
	return s.Tickets.ListByUser(userID)
}

// ActiveTrips returns the rider's in-motion tickets.
func (s TicketService) ActiveTrips(userID string) ([]models.Ticket, error) {
	all, err := s.Tickets.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return trips.ActiveTrips(all), nil
}

// CurrentTrain reports the run the rider is aboard right now, if any.
func (s TicketService) CurrentTrain(userID string) (models.Ticket, bool, error) {
	all, err := s.Tickets.ListByUser(userID)
	if err != nil {
		return models.Ticket{}, false, err
	}
	t, ok := trips.CurrentTrain(all)
	return t, ok, nil
}

// Transition moves a ticket to the target status after ownership and
// lifecycle checks.
func (s TicketService) Transition(id, userID string, target models.TicketStatus) (models.Ticket, error) {
	t, err := s.Get(id, userID)
	if err != nil {
		return t, err
	}
	if t.Status == target {
		return t, nil
	}
	if !transitionAllowed(t.Status, target) {
		return models.Ticket{}, domain.ConflictError{
			Resource: "ticket",
			Code:     "INVALID_TRANSITION",
			Msg:      fmt.Sprintf("cannot move ticket from %s to %s", t.Status, target),
		}
	}
	if err := s.Tickets.UpdateStatus(id, target); err != nil {
		return models.Ticket{}, err
	}
	utils.LogEvent(s.RequestID, "ticket", "status_changed",
		fmt.Sprintf("ticket=%s %s -> %s", id, t.Status, target))
	t.Status = target
	return t, nil
}

// Pay confirms payment on a pending ticket.
func (s TicketService) Pay(id, userID string) (models.Ticket, error) {
	return s.Transition(id, userID, models.TicketPaid)
}

// Cancel voids a pending or paid ticket and releases its seat.
func (s TicketService) Cancel(id, userID string) (models.Ticket, error) {
	return s.Transition(id, userID, models.TicketCancelled)
}

// CheckIn marks the rider as checked in before boarding.
func (s TicketService) CheckIn(id, userID string) (models.Ticket, error) {
	return s.Transition(id, userID, models.TicketCheckedIn)
}

// Board boards the rider. A rider may be aboard at most one train, so a
// second boarded ticket anywhere is rejected.
func (s TicketService) Board(id, userID string) (models.Ticket, error) {
	all, err := s.Tickets.ListByUser(userID)
	if err != nil {
		return models.Ticket{}, err
	}
	for _, other := range all {
		if other.ID != id && other.Status == models.TicketBoarded {
			return models.Ticket{}, domain.ConflictError{
				Resource: "ticket",
				Code:     "ALREADY_ONBOARD",
				Msg:      "rider is already aboard another train",
			}
		}
	}
	return s.Transition(id, userID, models.TicketBoarded)
}

// Complete closes out a boarded ticket at arrival.
func (s TicketService) Complete(id, userID string) (models.Ticket, error) {
	return s.Transition(id, userID, models.TicketCompleted)
}

// Refund refunds a paid ticket and releases its seat.
func (s TicketService) Refund(id, userID string) (models.Ticket, error) {
	return s.Transition(id, userID, models.TicketRefunded)
}

// SeatNeighbors lists who holds the seats around a ticket's seat on the
// same run, for the seat-row room roster.
func (s TicketService) SeatNeighbors(id, userID string) ([]models.OccupiedSeat, error) {
	t, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.Tickets.OccupiedSeats(t.TrainID, t.ServiceDate)
	if err != nil {
		return nil, err
	}
	out := []models.OccupiedSeat{}
	for _, o := range occupied {
		if o.Carriage == t.Seat.Carriage && o.Row == t.Seat.Row && o.Key() != t.Seat.Key() {
			out = append(out, o)
		}
	}
	return out, nil
}

// VerifyPNR checks a record locator against a ticket, for gate staff.
func (s TicketService) VerifyPNR(id, pnr string) (models.Ticket, error) {
	t, err := s.Tickets.GetByID(id)
	if err != nil {
		return t, err
	}
	if t.PNRCode != pnr {
		return models.Ticket{}, domain.ValidationError{Field: "pnr_code", Msg: "does not match"}
	}
	if !models.IsActiveTicketStatus(t.Status) && t.Status != models.TicketPendingPayment {
		return models.Ticket{}, domain.ConflictError{Resource: "ticket", Code: "TICKET_NOT_ACTIVE", Msg: "ticket is no longer valid"}
	}
	return t, nil
}
