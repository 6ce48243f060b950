package models

import (
	"time"

	"greentrain/internal/timemath"
)

type TicketStatus string

const (
	TicketPendingPayment TicketStatus = "pending_payment"
	TicketPaid           TicketStatus = "paid"
	TicketCancelled      TicketStatus = "cancelled"
	TicketRefunded       TicketStatus = "refunded"
	TicketCompleted      TicketStatus = "completed"
	TicketCheckedIn      TicketStatus = "checked_in"
	TicketBoarded        TicketStatus = "boarded"
)

// ActiveTicketStatuses are the statuses counted for trip-conflict and
// already-on-train checks. pending_payment, cancelled and refunded never
// hold a claim on the rider's time.
var ActiveTicketStatuses = []TicketStatus{
	TicketPaid, TicketCheckedIn, TicketBoarded, TicketCompleted,
}

// IsActiveTicketStatus reports membership in ActiveTicketStatuses.
func IsActiveTicketStatus(s TicketStatus) bool {
	for _, a := range ActiveTicketStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// RoomIds are the four chat-room identifiers derived once at booking time.
// Their string forms are a wire contract shared with chat clients.
type RoomIds struct {
	Global   string `json:"global"`
	Carriage string `json:"carriage"`
	Row      string `json:"row"`
	Seat     string `json:"seat"`
}

// All returns the four ids in global, carriage, row, seat order.
func (r RoomIds) All() []string {
	return []string{r.Global, r.Carriage, r.Row, r.Seat}
}

// JoinTokens are per-room entry tokens issued with a ticket.
type JoinTokens struct {
	Global   string `json:"global"`
	Carriage string `json:"carriage"`
	Row      string `json:"row"`
	Seat     string `json:"seat"`
}

// Ticket is one issued reservation. Depart/arrival are stored in both the
// train-local ISO rendering and UTC so conflict checks never re-derive
// timezone math.
type Ticket struct {
	ID      string `json:"ticket_id"`
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id,omitempty"`

	TrainID     string               `json:"train_id"`
	ServiceDate timemath.ServiceDate `json:"service_date"`
	Timezone    string               `json:"timezone"`

	FromStationIndex int    `json:"from_station_index"`
	ToStationIndex   int    `json:"to_station_index"`
	FromStationName  string `json:"from_station_name"`
	ToStationName    string `json:"to_station_name"`

	Seat Seat `json:"seat"`

	DepartAbsLocal  string    `json:"depart_abs_local"`
	ArrivalAbsLocal string    `json:"arrival_abs_local"`
	DepartAbsUTC    time.Time `json:"depart_abs_utc"`
	ArrivalAbsUTC   time.Time `json:"arrival_abs_utc"`

	Rooms      RoomIds      `json:"room_ids"`
	JoinTokens JoinTokens   `json:"join_tokens"`
	Status     TicketStatus `json:"status"`

	PNRCode       string `json:"pnr_code,omitempty"`
	QRCodePayload string `json:"qrcode_payload,omitempty"`

	TrainSnapshot *Train `json:"train_snapshot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
