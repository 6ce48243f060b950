// Package rooms derives and parses the four-tier chat room identifiers.
// The string forms are a wire contract: chat clients derive and parse them
// to join topics, so any format change breaks every consumer.
package rooms

import (
	"fmt"
	"regexp"
	"strconv"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// RoomType names one of the four identifier tiers.
type RoomType string

const (
	TypeGlobal   RoomType = "global"
	TypeCarriage RoomType = "carriage"
	TypeRow      RoomType = "row"
	TypeSeat     RoomType = "seat"
)

// Derive builds the four room ids from already-resolved inputs. The
// arrival instant is the alighting station's arrival for this ticket, so a
// room dissolves once its last member has alighted.
func Derive(trainID string, serviceDate timemath.ServiceDate, arrival timemath.Instant, carriage, row int, seatLetter string) models.RoomIds {
	base := fmt.Sprintf("train-%s-%s", trainID, serviceDate)
	iso := arrival.LocalISO()
	return models.RoomIds{
		Global:   fmt.Sprintf("%s-global_%s", base, iso),
		Carriage: fmt.Sprintf("%s-carriage-%d_%s", base, carriage, iso),
		Row:      fmt.Sprintf("%s-seat-row-%02d_%s", base, row, iso),
		Seat:     fmt.Sprintf("%s-seat-%02d%s_%s", base, row, seatLetter, iso),
	}
}

// DeriveForTicket resolves the alighting station's arrival instant and
// derives the ids. The origin station has no arrival time and is not a
// valid alighting point.
func DeriveForTicket(train *models.Train, serviceDate timemath.ServiceDate, toStationIndex int, seat models.Seat) (models.RoomIds, error) {
	station := train.StationAt(toStationIndex)
	if station == nil || station.ArrivalTime == nil {
		return models.RoomIds{}, fmt.Errorf("%w: %d", domain.ErrInvalidStationIndex, toStationIndex)
	}
	arrival, err := timemath.ToInstant(serviceDate, *station.ArrivalTime, train.TimezoneOrDefault())
	if err != nil {
		return models.RoomIds{}, err
	}
	return Derive(train.ID, serviceDate, arrival, seat.Carriage, seat.Row, seat.Letter), nil
}

// Info is the structural parse of a room id.
type Info struct {
	TrainID     string               `json:"train_id"`
	ServiceDate timemath.ServiceDate `json:"service_date"`
	Type        RoomType             `json:"type"`
	Carriage    int                  `json:"carriage,omitempty"`
	Row         int                  `json:"row,omitempty"`
	SeatLetter  string               `json:"seat_letter,omitempty"`
	ArrivalISO  string               `json:"arrival_iso"`
}

var (
	globalPattern   = regexp.MustCompile(`^train-([A-Za-z0-9_-]+)-(\d{4}-\d{2}-\d{2})-global_(.+)$`)
	carriagePattern = regexp.MustCompile(`^train-([A-Za-z0-9_-]+)-(\d{4}-\d{2}-\d{2})-carriage-(\d+)_(.+)$`)
	rowPattern      = regexp.MustCompile(`^train-([A-Za-z0-9_-]+)-(\d{4}-\d{2}-\d{2})-seat-row-(\d{2})_(.+)$`)
	seatPattern     = regexp.MustCompile(`^train-([A-Za-z0-9_-]+)-(\d{4}-\d{2}-\d{2})-seat-(\d{2})([A-DF])_(.+)$`)
)

// Parse is the structural inverse of Derive. It recognizes all four
// shapes and returns ok=false for anything else; probing arbitrary
// strings is legitimate, so a miss is not an error.
func Parse(roomID string) (Info, bool) {
	if m := globalPattern.FindStringSubmatch(roomID); m != nil {
		return Info{
			TrainID:     m[1],
			ServiceDate: timemath.ServiceDate(m[2]),
			Type:        TypeGlobal,
			ArrivalISO:  m[3],
		}, true
	}
	if m := carriagePattern.FindStringSubmatch(roomID); m != nil {
		carriage, _ := strconv.Atoi(m[3])
		return Info{
			TrainID:     m[1],
			ServiceDate: timemath.ServiceDate(m[2]),
			Type:        TypeCarriage,
			Carriage:    carriage,
			ArrivalISO:  m[4],
		}, true
	}
	if m := rowPattern.FindStringSubmatch(roomID); m != nil {
		row, _ := strconv.Atoi(m[3])
		return Info{
			TrainID:     m[1],
			ServiceDate: timemath.ServiceDate(m[2]),
			Type:        TypeRow,
			Row:         row,
			ArrivalISO:  m[4],
		}, true
	}
	if m := seatPattern.FindStringSubmatch(roomID); m != nil {
		row, _ := strconv.Atoi(m[3])
		return Info{
			TrainID:     m[1],
			ServiceDate: timemath.ServiceDate(m[2]),
			Type:        TypeSeat,
			Row:         row,
			SeatLetter:  m[4],
			ArrivalISO:  m[5],
		}, true
	}
	return Info{}, false
}

// validPattern matches any of the four canonical shapes including the
// arrival suffix.
var validPattern = regexp.MustCompile(`^train-[A-Za-z0-9_-]+-\d{4}-\d{2}-\d{2}-(global|carriage-\d+|seat-row-\d{2}|seat-\d{2}[A-DF])_\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{2}:\d{2}$`)

// IsValid reports whether roomID is well formed, including its arrival
// timestamp suffix.
func IsValid(roomID string) bool {
	return validPattern.MatchString(roomID)
}
