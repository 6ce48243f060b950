// Package seating implements the two seat allocation strategies:
// deterministic sequential fill, and a seeded "smart" strategy that
// clusters new riders near existing ones. Both are pure functions; callers
// must serialize seat commits per train/service-date themselves.
package seating

import (
	"fmt"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
	"greentrain/internal/timemath"
)

// Strategy names the seat selection policy of a booking request.
type Strategy string

const (
	StrategySequential  Strategy = "sequential"
	StrategySmartRandom Strategy = "smart_random"
)

// ParseStrategy validates a strategy name at the API boundary.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategySmartRandom:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownSeatStrategy, s)
	}
}

// emptyTrainPreference seeds an empty carriage from the middle out rather
// than from letter A.
var emptyTrainPreference = []string{"C", "D", "B", "F", "A"}

// eachSeat walks every seat in the fixed total order: carriage ascending,
// row ascending, letters A, B, C, D, F. Returning false stops the walk.
func eachSeat(train *models.Train, fn func(models.Seat) bool) {
	for carriage := 1; carriage <= train.Carriages; carriage++ {
		for row := 1; row <= train.RowsPerCarriage; row++ {
			for _, letter := range models.SeatLetters {
				if !fn(models.Seat{Carriage: carriage, Row: row, Letter: letter}) {
					return
				}
			}
		}
	}
}

// SelectSequential returns the first free seat in the fixed total order,
// or ok=false when the train is sold out. Exhaustion is an expected
// business outcome, not an error.
func SelectSequential(train *models.Train, occupied map[string]bool) (models.Seat, bool) {
	var found models.Seat
	ok := false
	eachSeat(train, func(s models.Seat) bool {
		if occupied[s.Key()] {
			return true
		}
		found, ok = s, true
		return false
	})
	return found, ok
}

// distance weights row separation ten times more than letter separation,
// and makes any cross-carriage pair effectively unreachable so a seat in
// another carriage never wins a proximity tie.
func distance(a, b models.Seat) int {
	if a.Carriage != b.Carriage {
		d := a.Carriage - b.Carriage
		if d < 0 {
			d = -d
		}
		return 1000 + 100*d
	}
	rowDist := a.Row - b.Row
	if rowDist < 0 {
		rowDist = -rowDist
	}
	letterDist := models.SeatLetterIndex(a.Letter) - models.SeatLetterIndex(b.Letter)
	if letterDist < 0 {
		letterDist = -letterDist
	}
	return rowDist*10 + letterDist
}

// minDistanceToOccupied is the minimal pairwise distance from seat to any
// occupied seat.
func minDistanceToOccupied(seat models.Seat, occupied []models.OccupiedSeat) int {
	min := -1
	for _, o := range occupied {
		d := distance(seat, o.Seat)
		if min < 0 || d < min {
			min = d
		}
	}
	return min
}

// ProximityScore is 1000 / (1 + minimal distance to any occupied seat);
// higher means closer. Exposed for diagnostics and tests.
func ProximityScore(seat models.Seat, occupied []models.OccupiedSeat) float64 {
	if len(occupied) == 0 {
		return 0
	}
	return 1000.0 / float64(1+minDistanceToOccupied(seat, occupied))
}

// stableHash is the specified 32-bit rolling hash: h = h*31 + byte over
// the seed string, as signed 32-bit arithmetic, absolute value. It must
// never change; idempotent booking retries depend on it. Language builtin
// string hashes are not stable across processes and must not be used here.
func stableHash(s string) uint32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// SelectSmart picks a free seat that maximizes the proximity score, with a
// deterministic hash(userID+serviceDate) tie-break. On an empty train it
// seeds a natural center via the C, D, B, F, A preference order instead.
func SelectSmart(train *models.Train, occupied []models.OccupiedSeat, userID string, serviceDate timemath.ServiceDate) (models.Seat, bool) {
	occupiedSet := make(map[string]bool, len(occupied))
	for _, o := range occupied {
		occupiedSet[o.Key()] = true
	}

	free := make([]models.Seat, 0, train.TotalSeats()-len(occupied))
	eachSeat(train, func(s models.Seat) bool {
		if !occupiedSet[s.Key()] {
			free = append(free, s)
		}
		return true
	})
	if len(free) == 0 {
		return models.Seat{}, false
	}

	if len(occupied) == 0 {
		for _, letter := range emptyTrainPreference {
			for _, s := range free {
				if s.Letter == letter {
					return s, true
				}
			}
		}
	}

	// Max score equals min distance; ties in score are ties in distance.
	best := -1
	var tied []models.Seat
	for _, s := range free {
		d := minDistanceToOccupied(s, occupied)
		switch {
		case best < 0 || d < best:
			best = d
			tied = append(tied[:0], s)
		case d == best:
			tied = append(tied, s)
		}
	}

	seed := stableHash(userID + string(serviceDate))
	return tied[seed%uint32(len(tied))], true
}

// Select dispatches by strategy. An unknown strategy yields no seat.
func Select(train *models.Train, strategy Strategy, occupied []models.OccupiedSeat, userID string, serviceDate timemath.ServiceDate) (models.Seat, bool) {
	switch strategy {
	case StrategySequential:
		occupiedSet := make(map[string]bool, len(occupied))
		for _, o := range occupied {
			occupiedSet[o.Key()] = true
		}
		return SelectSequential(train, occupiedSet)
	case StrategySmartRandom:
		return SelectSmart(train, occupied, userID, serviceDate)
	default:
		return models.Seat{}, false
	}
}
