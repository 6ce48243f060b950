package timemath

import (
	"fmt"
	"sync"
	"time"

	"greentrain/internal/domain"
)

// DefaultTimezone is assumed when a train does not name one.
const DefaultTimezone = "Asia/Shanghai"

const localISOLayout = "2006-01-02T15:04:05-07:00"

var (
	locMu    sync.Mutex
	locCache = map[string]*time.Location{}
)

// Location resolves an IANA zone name, caching loaded zones. An empty name
// falls back to DefaultTimezone.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	locMu.Lock()
	defer locMu.Unlock()
	if loc, ok := locCache[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTimezone, name)
	}
	locCache[name] = loc
	return loc, nil
}

// Instant is an absolute point in time paired with the zone it was
// resolved in, so both the UTC and the local wall-clock rendering stay
// available. Instants are produced only by this package.
type Instant struct {
	utc time.Time
	loc *time.Location
}

// ToInstant resolves serviceDate + rt.DayOffset days at rt.Hours:rt.Minutes
// on the wall clock of timezone into an absolute instant. time.Date performs
// the offset resolution against the zone's transition table, so the result
// is correct across DST discontinuities; wall times falling inside a DST
// gap are normalized forward.
func ToInstant(serviceDate ServiceDate, rt RelativeTime, timezone string) (Instant, error) {
	loc, err := Location(timezone)
	if err != nil {
		return Instant{}, err
	}
	target := serviceDate.AddDays(rt.DayOffset)
	t, err := time.Parse(dateLayout, string(target))
	if err != nil {
		return Instant{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, string(target))
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), rt.Hours, rt.Minutes, 0, 0, loc)
	return Instant{utc: local.UTC(), loc: loc}, nil
}

// InstantFromTime wraps an externally obtained absolute time (e.g. the
// clock) so it can be compared against engine instants in a zone.
func InstantFromTime(t time.Time, timezone string) (Instant, error) {
	loc, err := Location(timezone)
	if err != nil {
		return Instant{}, err
	}
	return Instant{utc: t.UTC(), loc: loc}, nil
}

// UTC returns the absolute time.
func (i Instant) UTC() time.Time { return i.utc }

// Local returns the wall-clock rendering in the instant's zone.
func (i Instant) Local() time.Time { return i.utc.In(i.loc) }

// LocalISO renders the local time as ISO-8601 with a numeric UTC offset,
// e.g. 2025-08-16T09:45:00+08:00. This exact form feeds the room-id wire
// format.
func (i Instant) LocalISO() string { return i.utc.In(i.loc).Format(localISOLayout) }

// UTCISO renders the instant in UTC, RFC 3339.
func (i Instant) UTCISO() string { return i.utc.Format(time.RFC3339) }

// Add shifts the instant by d, keeping the zone for local rendering.
func (i Instant) Add(d time.Duration) Instant {
	return Instant{utc: i.utc.Add(d), loc: i.loc}
}

// Before reports whether the instant precedes t.
func (i Instant) Before(t time.Time) bool { return i.utc.Before(t.UTC()) }

// After reports whether the instant follows t.
func (i Instant) After(t time.Time) bool { return i.utc.After(t.UTC()) }

// Sub returns the duration from t until the instant, clamped at zero.
// Countdown helpers must never go negative.
func (i Instant) Sub(t time.Time) time.Duration {
	d := i.utc.Sub(t.UTC())
	if d < 0 {
		return 0
	}
	return d
}
