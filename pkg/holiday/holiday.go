// Package holiday resolves whether a local calendar date is a public
// holiday for a country. Holiday awareness is an enhancement, not a
// precondition: every failure path degrades to an "unknown" status instead
// of surfacing an error to the scheduling pipeline.
package holiday

import (
	"context"
	"fmt"
)

// Status is the tri-state answer to "is this date a holiday here?".
type Status int

const (
	// HolidayUnknown means the lookup failed or no data was available.
	HolidayUnknown Status = iota
	// HolidayNo means the date is a regular day.
	HolidayNo
	// HolidayYes means the date is a public holiday.
	HolidayYes
)

func (s Status) String() string {
	switch s {
	case HolidayYes:
		return "yes"
	case HolidayNo:
		return "no"
	case HolidayUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its product vocabulary string.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Source answers holiday lookups for a local date ("2006-01-02") and an
// ISO-3166 alpha-2 country code. Implementations return HolidayUnknown
// together with the causing error on failure; callers log and continue.
type Source interface {
	IsHoliday(ctx context.Context, date, country string) (Status, error)
}
