// Package tzlocal converts UTC instants into participant-local wall clocks.
// ALL times handed to the scheduling engine are UTC; these helpers perform
// the per-participant conversion to local time and nothing else.
package tzlocal

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimezone is returned when a timezone identifier is not a
// recognized IANA zone. It is fatal for the one participant carrying the
// identifier, never for a whole batch.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Clock is a participant's local wall clock at a single UTC instant.
type Clock struct {
	Date    string       `json:"date"` // local calendar date, "2006-01-02"
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
}

// At converts a UTC instant to the local wall clock of the given IANA zone.
// DST transitions and fractional UTC offsets (UTC+5:30, UTC+9:45) are
// handled by the timezone database.
func At(instant time.Time, tz string) (Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}

	return AtLocation(instant, loc), nil
}

// AtLocation is At for an already resolved location. Callers evaluating
// many instants for one participant resolve the zone once and use this.
func AtLocation(instant time.Time, loc *time.Location) Clock {
	local := instant.In(loc)
	return Clock{
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Weekday: local.Weekday(),
		Date:    local.Format("2006-01-02"),
	}
}

// HourFraction returns the clock as a fractional hour, e.g. 9.5 for 09:30.
// Work window boundaries use the same unit.
func HourFraction(c Clock) float64 {
	return float64(c.Hour) + float64(c.Minute)/60.0
}

// Valid reports whether tz names a loadable IANA zone.
func Valid(tz string) bool {
	_, err := time.LoadLocation(tz)
	return err == nil
}
