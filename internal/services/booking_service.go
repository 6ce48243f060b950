package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"greentrain/internal/calendar"
	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/notify"
	"greentrain/internal/rooms"
	"greentrain/internal/sales"
	"greentrain/internal/seating"
	"greentrain/internal/timemath"
	"greentrain/internal/trips"
	"greentrain/internal/utils"
)

// TrainCatalog supplies immutable train snapshots.
type TrainCatalog interface {
	GetByID(id string) (*models.Train, error)
	ListActive() ([]models.Train, error)
}

// TicketStore is the persistence boundary for tickets.
type TicketStore interface {
	Insert(t *models.Ticket) error
	GetByID(id string) (models.Ticket, error)
	ListByUser(userID string) ([]models.Ticket, error)
	OccupiedSeats(trainID string, serviceDate timemath.ServiceDate) ([]models.OccupiedSeat, error)
	UpdateStatus(id string, status models.TicketStatus) error
}

// Per-run commit locks. Seat selection, the conflict check and the ticket
// insert must observe one consistent occupancy snapshot, so everything
// between occupancy read and insert runs under the (train, date) lock.
var (
	runLocksMu sync.Mutex
	runLocks   = map[string]*sync.Mutex{}
)

func lockRun(trainID string, serviceDate timemath.ServiceDate) *sync.Mutex {
	key := trainID + "@" + string(serviceDate)
	runLocksMu.Lock()
	defer runLocksMu.Unlock()
	mu, ok := runLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		runLocks[key] = mu
	}
	return mu
}

// BookingRequest is one seat purchase attempt.
type BookingRequest struct {
	TrainID          string `json:"train_id"`
	ServiceDate      string `json:"service_date"`
	FromStationIndex int    `json:"from_station_index"`
	ToStationIndex   int    `json:"to_station_index"`
	SeatStrategy     string `json:"seat_strategy"`
	UserID           string `json:"user_id"`
}

// BookingService runs the end-to-end booking flow: service-day check,
// sales-window check, seat allocation, room derivation, trip-conflict
// check, persist, fan-out.
type BookingService struct {
	Trains    TrainCatalog
	Tickets   TicketStore
	Notifier  notify.Publisher
	Clock     Clock
	RequestID string
}

func (s BookingService) clock() Clock {
	if s.Clock == nil {
		return SystemClock{}
	}
	return s.Clock
}

func (s BookingService) notifier() notify.Publisher {
	if s.Notifier == nil {
		return notify.NopPublisher{}
	}
	return s.Notifier
}

// Book issues a ticket or reports why it cannot. Validation failures are
// deterministic; conflicts carry the API error code of the original
// platform.
func (s BookingService) Book(req BookingRequest) (models.Ticket, error) {
	var ticket models.Ticket

	if strings.TrimSpace(req.UserID) == "" {
		return ticket, domain.ValidationError{Field: "user_id", Msg: "required"}
	}
	serviceDate, err := timemath.ParseServiceDate(req.ServiceDate)
	if err != nil {
		return ticket, err
	}
	strategy, err := seating.ParseStrategy(req.SeatStrategy)
	if err != nil {
		return ticket, err
	}
	if req.FromStationIndex >= req.ToStationIndex {
		return ticket, domain.ValidationError{Field: "to_station_index", Msg: "must be after boarding station"}
	}

	train, err := s.Trains.GetByID(req.TrainID)
	if err != nil {
		return ticket, err
	}

	from := train.StationAt(req.FromStationIndex)
	if from == nil || from.DepartureTime == nil {
		return ticket, fmt.Errorf("%w: %d", domain.ErrInvalidStationIndex, req.FromStationIndex)
	}
	to := train.StationAt(req.ToStationIndex)
	if to == nil || to.ArrivalTime == nil {
		return ticket, fmt.Errorf("%w: %d", domain.ErrInvalidStationIndex, req.ToStationIndex)
	}

	now := s.clock().Now()
	status, err := sales.GetStatus(train, now, serviceDate, req.FromStationIndex)
	if err != nil {
		return ticket, err
	}
	switch status {
	case sales.StatusAvailable:
	case sales.StatusNotStarted:
		return ticket, domain.ConflictError{Resource: "sale", Code: "SALE_NOT_OPEN", Msg: "sales have not opened yet"}
	case sales.StatusClosed:
		return ticket, domain.ConflictError{Resource: "sale", Code: "SALE_CLOSED", Msg: "sales are closed for this departure"}
	default:
		return ticket, domain.ConflictError{Resource: "sale", Code: "NOT_ON_SALE", Msg: "train is not on sale for this date"}
	}

	tz := train.TimezoneOrDefault()
	depart, err := timemath.ToInstant(serviceDate, *from.DepartureTime, tz)
	if err != nil {
		return ticket, err
	}
	arrival, err := timemath.ToInstant(serviceDate, *to.ArrivalTime, tz)
	if err != nil {
		return ticket, err
	}

	mu := lockRun(train.ID, serviceDate)
	mu.Lock()
	defer mu.Unlock()

	userTickets, err := s.Tickets.ListByUser(req.UserID)
	if err != nil {
		return ticket, err
	}
	if trips.IsAlreadyOnTrain(userTickets, train.ID, serviceDate) {
		return ticket, domain.ConflictError{Resource: "trip", Code: "USER_ALREADY_ON_TRAIN", Msg: "rider already holds a seat on this run"}
	}
	if trips.Overlaps(userTickets, depart.UTC(), arrival.UTC()) {
		return ticket, domain.ConflictError{Resource: "trip", Code: "USER_ALREADY_ON_TRIP", Msg: "rider has an overlapping trip"}
	}

	occupied, err := s.Tickets.OccupiedSeats(train.ID, serviceDate)
	if err != nil {
		return ticket, err
	}
	seat, ok := seating.Select(train, strategy, occupied, req.UserID, serviceDate)
	if !ok {
		return ticket, domain.ConflictError{Resource: "seat", Code: "SOLD_OUT", Msg: "no seats available"}
	}

	roomIDs, err := rooms.DeriveForTicket(train, serviceDate, req.ToStationIndex, seat)
	if err != nil {
		return ticket, err
	}

	snapshot := *train
	ticket = models.Ticket{
		ID:               "tkt_" + uuid.NewString()[:8],
		OrderID:          fmt.Sprintf("ord_%d", now.UnixMilli()),
		UserID:           req.UserID,
		TrainID:          train.ID,
		ServiceDate:      serviceDate,
		Timezone:         tz,
		FromStationIndex: req.FromStationIndex,
		ToStationIndex:   req.ToStationIndex,
		FromStationName:  from.Name,
		ToStationName:    to.Name,
		Seat:             seat,
		DepartAbsLocal:   depart.LocalISO(),
		ArrivalAbsLocal:  arrival.LocalISO(),
		DepartAbsUTC:     depart.UTC(),
		ArrivalAbsUTC:    arrival.UTC(),
		Rooms:            roomIDs,
		JoinTokens: models.JoinTokens{
			Global:   uuid.NewString(),
			Carriage: uuid.NewString(),
			Row:      uuid.NewString(),
			Seat:     uuid.NewString(),
		},
		Status:        models.TicketPendingPayment,
		PNRCode:       newPNRCode(),
		QRCodePayload: "greentrain://ticket/",
		TrainSnapshot: &snapshot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ticket.QRCodePayload += ticket.ID

	if err := s.Tickets.Insert(&ticket); err != nil {
		// The unique seat index is the backstop when another process
		// commits the same seat between snapshot and insert.
		var dup *mysql.MySQLError
		if errors.As(err, &dup) && dup.Number == 1062 {
			return models.Ticket{}, domain.ConflictError{Resource: "seat", Code: "SEAT_CONFLICT_RETRY", Msg: "seat was taken concurrently, retry"}
		}
		return models.Ticket{}, err
	}

	utils.LogEvent(s.RequestID, "booking", "ticket_issued",
		fmt.Sprintf("ticket=%s train=%s date=%s seat=%s", ticket.ID, train.ID, serviceDate, seat.Label()))
	s.publishRoomEvents(ticket)
	return ticket, nil
}

// publishRoomEvents announces the new ticket to all four rooms. Fan-out
// failures never fail the booking.
func (s BookingService) publishRoomEvents(t models.Ticket) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload := map[string]any{
		"event":        "ticket_issued",
		"ticket_id":    t.ID,
		"train_id":     t.TrainID,
		"service_date": string(t.ServiceDate),
		"seat":         t.Seat.Label(),
	}
	for _, roomID := range t.Rooms.All() {
		if err := s.notifier().Publish(ctx, roomID, payload); err != nil {
			utils.LogEvent(s.RequestID, "booking", "room_event_failed", err.Error())
		}
	}
}

// newPNRCode builds a 6-character record locator from a UUID, skipping
// the dashes.
func newPNRCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:6]
}

// SalesProbe reports the sale status plus window boundaries for one
// train/date/segment, for the availability endpoint.
type SalesProbe struct {
	Status    sales.Status `json:"status"`
	OnSale    bool         `json:"on_sale"`
	OpenAt    string       `json:"open_at,omitempty"`
	CloseAt   string       `json:"close_at"`
	SecsToEnd int64        `json:"seconds_until_close"`
}

// ProbeSales is the read-only sales-window lookup backing the UI
// countdown.
func (s BookingService) ProbeSales(trainID, serviceDateRaw string, fromStationIndex int) (SalesProbe, error) {
	var probe SalesProbe
	serviceDate, err := timemath.ParseServiceDate(serviceDateRaw)
	if err != nil {
		return probe, err
	}
	train, err := s.Trains.GetByID(trainID)
	if err != nil {
		return probe, err
	}
	now := s.clock().Now()

	status, err := sales.GetStatus(train, now, serviceDate, fromStationIndex)
	if err != nil {
		return probe, err
	}
	window, err := sales.GetWindow(train, serviceDate, fromStationIndex)
	if err != nil {
		return probe, err
	}
	remaining, err := sales.TimeUntilClose(train, now, serviceDate, fromStationIndex)
	if err != nil {
		return probe, err
	}

	probe.Status = status
	probe.OnSale = status == sales.StatusAvailable
	if window.OpenAt != nil {
		probe.OpenAt = window.OpenAt.LocalISO()
	}
	probe.CloseAt = window.CloseAt.LocalISO()
	probe.SecsToEnd = int64(remaining / time.Second)
	return probe, nil
}

// NextServiceDate exposes the calendar lookahead for one train.
func (s BookingService) NextServiceDate(trainID, fromRaw string) (timemath.ServiceDate, bool, error) {
	from, err := timemath.ParseServiceDate(fromRaw)
	if err != nil {
		return "", false, err
	}
	train, err := s.Trains.GetByID(trainID)
	if err != nil {
		return "", false, err
	}
	return calendar.NextServiceDate(train, from, calendar.DefaultLookaheadDays)
}

// ServiceDates resolves a train's calendar over an inclusive window.
func (s BookingService) ServiceDates(trainID, startRaw, endRaw string) ([]timemath.ServiceDate, error) {
	start, err := timemath.ParseServiceDate(startRaw)
	if err != nil {
		return nil, err
	}
	end, err := timemath.ParseServiceDate(endRaw)
	if err != nil {
		return nil, err
	}
	train, err := s.Trains.GetByID(trainID)
	if err != nil {
		return nil, err
	}
	return calendar.Resolve(train, start, end)
}
