package repositories

import (
	"database/sql"
	"encoding/json"
	"strings"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// TicketRepository stores issued tickets. Seat columns are scanned back
// into the engine value types; the train snapshot rides along as JSON.
type TicketRepository struct {
	DB *sql.DB
}

const ticketColumns = `id, user_id, order_id, train_id, service_date, timezone,
from_station_index, to_station_index, from_station_name, to_station_name,
carriage, seat_row, seat_letter,
depart_abs_local, arrival_abs_local, depart_abs_utc, arrival_abs_utc,
room_global, room_carriage, room_row, room_seat,
token_global, token_carriage, token_row, token_seat,
status, pnr_code, qrcode_payload, train_snapshot, created_at, updated_at`

// Insert persists a freshly issued ticket.
func (r TicketRepository) Insert(t *models.Ticket) error {
	var snapshot []byte
	if t.TrainSnapshot != nil {
		raw, err := json.Marshal(t.TrainSnapshot)
		if err != nil {
			return domain.InternalError{Msg: "marshal train snapshot", Err: err}
		}
		snapshot = raw
	}

	_, err := r.DB.Exec(`
        INSERT INTO tickets (`+ticketColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		t.ID, t.UserID, t.OrderID, t.TrainID, string(t.ServiceDate), t.Timezone,
		t.FromStationIndex, t.ToStationIndex, t.FromStationName, t.ToStationName,
		t.Seat.Carriage, t.Seat.Row, t.Seat.Letter,
		t.DepartAbsLocal, t.ArrivalAbsLocal, t.DepartAbsUTC, t.ArrivalAbsUTC,
		t.Rooms.Global, t.Rooms.Carriage, t.Rooms.Row, t.Rooms.Seat,
		t.JoinTokens.Global, t.JoinTokens.Carriage, t.JoinTokens.Row, t.JoinTokens.Seat,
		string(t.Status), t.PNRCode, t.QRCodePayload, snapshot, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func scanTicket(rows interface{ Scan(...any) error }) (models.Ticket, error) {
	var (
		t           models.Ticket
		serviceDate string
		status      string
		snapshot    []byte
		orderID     sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.UserID, &orderID, &t.TrainID, &serviceDate, &t.Timezone,
		&t.FromStationIndex, &t.ToStationIndex, &t.FromStationName, &t.ToStationName,
		&t.Seat.Carriage, &t.Seat.Row, &t.Seat.Letter,
		&t.DepartAbsLocal, &t.ArrivalAbsLocal, &t.DepartAbsUTC, &t.ArrivalAbsUTC,
		&t.Rooms.Global, &t.Rooms.Carriage, &t.Rooms.Row, &t.Rooms.Seat,
		&t.JoinTokens.Global, &t.JoinTokens.Carriage, &t.JoinTokens.Row, &t.JoinTokens.Seat,
		&status, &t.PNRCode, &t.QRCodePayload, &snapshot, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	t.OrderID = strings.TrimSpace(orderID.String)
	t.ServiceDate = timemath.ServiceDate(serviceDate)
	t.Status = models.TicketStatus(status)
	if len(snapshot) > 0 {
		var train models.Train
		if err := json.Unmarshal(snapshot, &train); err == nil {
			t.TrainSnapshot = &train
		}
	}
	return t, nil
}

// GetByID loads one ticket.
func (r TicketRepository) GetByID(id string) (models.Ticket, error) {
	row := r.DB.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return t, domain.NotFoundError{Resource: "ticket"}
	}
	return t, err
}

// ListByUser returns all tickets of a rider, newest first.
func (r TicketRepository) ListByUser(userID string) ([]models.Ticket, error) {
	rows, err := r.DB.Query(`SELECT `+ticketColumns+` FROM tickets WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OccupiedSeats returns the seats currently held on one train run.
// pending_payment holds its seat until it is cancelled or times out;
// cancelled and refunded tickets release theirs.
func (r TicketRepository) OccupiedSeats(trainID string, serviceDate timemath.ServiceDate) ([]models.OccupiedSeat, error) {
	rows, err := r.DB.Query(`
        SELECT carriage, seat_row, seat_letter, user_id
        FROM tickets
        WHERE train_id = ? AND service_date = ? AND status NOT IN ('cancelled', 'refunded')
        ORDER BY carriage ASC, seat_row ASC, seat_letter ASC
    `, trainID, string(serviceDate))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OccupiedSeat{}
	for rows.Next() {
		var s models.OccupiedSeat
		if err := rows.Scan(&s.Carriage, &s.Row, &s.Letter, &s.UserID); err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStatus sets a ticket's lifecycle status. Transition validity is
// checked by the service layer; this only touches the row.
func (r TicketRepository) UpdateStatus(id string, status models.TicketStatus) error {
	res, err := r.DB.Exec(`UPDATE tickets SET status = ?, updated_at = NOW() WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFoundError{Resource: "ticket"}
	}
	return nil
}
