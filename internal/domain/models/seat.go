package models

import (
	"fmt"
	"strings"

	"greentrain/internal/domain"
)

// SeatLetters is the canonical letter order. There is no "E"; the skip
// mirrors real-world rail seat lettering.
var SeatLetters = []string{"A", "B", "C", "D", "F"}

// SeatLettersPerRow is the fixed seats-per-row count.
const SeatLettersPerRow = 5

// SeatLetterIndex returns the position of letter in the canonical order,
// or -1 when the letter is not a valid seat letter.
func SeatLetterIndex(letter string) int {
	for i, l := range SeatLetters {
		if l == letter {
			return i
		}
	}
	return -1
}

// ParseSeatLetter validates a seat letter, accepting lowercase input.
func ParseSeatLetter(s string) (string, error) {
	letter := strings.ToUpper(strings.TrimSpace(s))
	if SeatLetterIndex(letter) < 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSeatLetter, s)
	}
	return letter, nil
}

// Seat addresses one physical seat on a train.
type Seat struct {
	Carriage int    `json:"carriage"`
	Row      int    `json:"row"`
	Letter   string `json:"letter"`
}

// Key renders the seat as "carriage-row-letter", the occupancy set key.
func (s Seat) Key() string {
	return fmt.Sprintf("%d-%d-%s", s.Carriage, s.Row, s.Letter)
}

// Label renders the short human form, e.g. "2-04F".
func (s Seat) Label() string {
	return fmt.Sprintf("%d-%02d%s", s.Carriage, s.Row, s.Letter)
}

// OccupiedSeat is a seat together with the rider holding it, the input of
// the proximity-scoring allocation strategy.
type OccupiedSeat struct {
	Seat
	UserID string `json:"user_id"`
}
