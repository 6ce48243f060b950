// Package trips detects overlapping-trip conflicts across one rider's
// tickets. Only tickets in an active status hold a claim on the rider's
// time; intervals are half-open so a connecting train may depart exactly
// when the prior one arrives.
package trips

import (
	"log"
	"sort"
	"time"

	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// rangesOverlap checks two half-open [start, end) intervals. Touching
// endpoints do not overlap.
func rangesOverlap(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// Overlaps reports whether any active ticket of the rider overlaps the
// candidate [depart, arrival) interval.
func Overlaps(tickets []models.Ticket, newDepart, newArrival time.Time) bool {
	for _, t := range tickets {
		if !models.IsActiveTicketStatus(t.Status) {
			continue
		}
		if rangesOverlap(t.DepartAbsUTC, t.ArrivalAbsUTC, newDepart, newArrival) {
			return true
		}
	}
	return false
}

// ConflictingTickets returns the active tickets overlapping the candidate
// interval.
func ConflictingTickets(tickets []models.Ticket, newDepart, newArrival time.Time) []models.Ticket {
	out := []models.Ticket{}
	for _, t := range tickets {
		if !models.IsActiveTicketStatus(t.Status) {
			continue
		}
		if rangesOverlap(t.DepartAbsUTC, t.ArrivalAbsUTC, newDepart, newArrival) {
			out = append(out, t)
		}
	}
	return out
}

// IsAlreadyOnTrain checks for an active ticket on the same train and
// service date regardless of time overlap: one rider, one seat, per train
// run.
func IsAlreadyOnTrain(tickets []models.Ticket, trainID string, serviceDate timemath.ServiceDate) bool {
	for _, t := range tickets {
		if t.TrainID == trainID && t.ServiceDate == serviceDate && models.IsActiveTicketStatus(t.Status) {
			return true
		}
	}
	return false
}

// ActiveTrips returns the rider's unfinished journeys (paid, checked in
// or boarded).
func ActiveTrips(tickets []models.Ticket) []models.Ticket {
	out := []models.Ticket{}
	for _, t := range tickets {
		switch t.Status {
		case models.TicketPaid, models.TicketCheckedIn, models.TicketBoarded:
			out = append(out, t)
		}
	}
	return out
}

// IsOnboard reports whether the rider currently holds a boarded ticket.
func IsOnboard(tickets []models.Ticket) bool {
	for _, t := range tickets {
		if t.Status == models.TicketBoarded {
			return true
		}
	}
	return false
}

// CurrentTrain returns the rider's boarded ticket. More than one boarded
// ticket violates the single-seat invariant; the earliest departure is
// returned and the violation logged rather than crashed on.
func CurrentTrain(tickets []models.Ticket) (models.Ticket, bool) {
	boarded := []models.Ticket{}
	for _, t := range tickets {
		if t.Status == models.TicketBoarded {
			boarded = append(boarded, t)
		}
	}
	if len(boarded) == 0 {
		return models.Ticket{}, false
	}
	if len(boarded) > 1 {
		log.Printf("[TRIPS] invariant violation: user %s holds %d boarded tickets", boarded[0].UserID, len(boarded))
		sort.Slice(boarded, func(i, j int) bool {
			return boarded[i].DepartAbsUTC.Before(boarded[j].DepartAbsUTC)
		})
	}
	return boarded[0], true
}
