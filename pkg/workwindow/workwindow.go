// Package workwindow classifies a participant's local hour against their
// configured working days and hours. Classification is three-tiered: inside
// the window, tolerably outside it, or unreasonable.
package workwindow

import (
	"fmt"
	"strings"
	"time"
)

// DefaultGraceHours is the band outside the work window that still counts
// as tolerable ("slightly early/late"). Product convention, overridable per
// call.
const DefaultGraceHours = 2.0

// Tier is the convenience classification of a local hour.
type Tier int

const (
	// TierCore means the hour falls inside the work window.
	TierCore Tier = iota
	// TierExtended means the hour is within the grace band of a window
	// boundary.
	TierExtended
	// TierUnreasonable means the hour is an off-day or far outside the
	// window.
	TierUnreasonable
)

func (t Tier) String() string {
	switch t {
	case TierCore:
		return "core"
	case TierExtended:
		return "extended"
	case TierUnreasonable:
		return "unreasonable"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalJSON encodes the tier as its product vocabulary string.
func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// DaySet is a set of active weekdays, one bit per time.Weekday.
type DaySet uint8

// With returns the set with the given days added.
func (s DaySet) With(days ...time.Weekday) DaySet {
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// On reports whether the given weekday is active.
func (s DaySet) On(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days returns the active weekdays in Sunday-first order.
func (s DaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.On(d) {
			out = append(out, d)
		}
	}
	return out
}

// Weekdays returns Mon-Fri.
func Weekdays() DaySet {
	return DaySet(0).With(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

// ParseDay maps a weekday name ("monday", "Mon") to its time.Weekday.
func ParseDay(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
}

// Profile is a participant's (or country's) working pattern: the active
// weekdays and the [Start, End) work-hours interval in local fractional
// hours. Country configurations satisfy 0 <= Start < End < 24; a profile
// with Start > End is interpreted as wrapping past midnight.
type Profile struct {
	Days  DaySet  `json:"days"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DefaultProfile is the fallback when neither the participant nor their
// country has a configured pattern: Mon-Fri, 09:00-17:00.
func DefaultProfile() Profile {
	return Profile{Days: Weekdays(), Start: 9, End: 17}
}

// wraps reports whether the window crosses midnight.
func (p Profile) wraps() bool {
	return p.Start > p.End
}

// contains reports whether the fractional hour falls in [Start, End).
func (p Profile) contains(h float64) bool {
	if p.wraps() {
		return h >= p.Start || h < p.End
	}
	return h >= p.Start && h < p.End
}

// Classify places a local fractional hour on a weekday into one of the
// three tiers. Off-days are unreasonable regardless of hour. The grace band
// extends the window by `grace` hours on each side; it wraps past midnight
// only when the window itself wraps, otherwise it clamps at 0 and 24.
// Classify is total: it always returns exactly one tier.
func Classify(localHour float64, weekday time.Weekday, p Profile, grace float64) Tier {
	if !p.Days.On(weekday) {
		return TierUnreasonable
	}
	if p.contains(localHour) {
		return TierCore
	}

	if p.wraps() {
		// The grace band wraps along with the window.
		extended := Profile{Start: mod24(p.Start - grace), End: mod24(p.End + grace)}
		if extended.contains(localHour) {
			return TierExtended
		}
		return TierUnreasonable
	}

	before := localHour >= p.Start-grace && localHour < p.Start
	after := localHour >= p.End && localHour < p.End+grace
	if before || after {
		return TierExtended
	}
	return TierUnreasonable
}

func mod24(h float64) float64 {
	for h < 0 {
		h += 24
	}
	for h >= 24 {
		h -= 24
	}
	return h
}
