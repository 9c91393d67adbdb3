package schedule

import (
	"github.com/jbillay/coordino-sub005/pkg/equity"
	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/workwindow"
)

// Participant is a scheduling participant as handed over by the caller.
// The engine never mutates it. Timezone is an IANA identifier; CountryCode
// is optional ISO-3166 alpha-2. Profile overrides the country and global
// defaults when set.
type Participant struct {
	Profile     *workwindow.Profile `json:"work_profile,omitempty"`
	ID          string              `json:"id"`
	DisplayName string              `json:"display_name"`
	Timezone    string              `json:"timezone"`
	CountryCode string              `json:"country_code,omitempty"`
}

// Option configures an Engine.
type Option func(*OptionHolder)

// OptionHolder holds configuration options.
type OptionHolder struct {
	source          holiday.Source
	countryProfiles map[string]workwindow.Profile
	defaultProfile  *workwindow.Profile
	weights         *equity.Weights
	grace           *float64
	anchorHour      *int
	workers         int
}

// WithHolidaySource sets the public holiday lookup. Without one, every
// holiday status is unknown.
func WithHolidaySource(source holiday.Source) Option {
	return func(o *OptionHolder) {
		o.source = source
	}
}

// WithCountryProfiles sets the per-country work profile fallbacks, keyed by
// ISO-3166 alpha-2 code.
func WithCountryProfiles(profiles map[string]workwindow.Profile) Option {
	return func(o *OptionHolder) {
		o.countryProfiles = profiles
	}
}

// WithDefaultProfile overrides the global Mon-Fri 09:00-17:00 fallback.
func WithDefaultProfile(p workwindow.Profile) Option {
	return func(o *OptionHolder) {
		o.defaultProfile = &p
	}
}

// WithWeights overrides the 100/50/0 tier weights.
func WithWeights(w equity.Weights) Option {
	return func(o *OptionHolder) {
		o.weights = &w
	}
}

// WithGraceHours overrides the 2-hour grace band.
func WithGraceHours(hours float64) Option {
	return func(o *OptionHolder) {
		o.grace = &hours
	}
}

// WithAnchorHour overrides the midday-UTC anchor used for tie-breaking.
func WithAnchorHour(hour int) Option {
	return func(o *OptionHolder) {
		o.anchorHour = &hour
	}
}

// WithWorkers bounds the concurrent hour evaluations of a heatmap build.
func WithWorkers(n int) Option {
	return func(o *OptionHolder) {
		o.workers = n
	}
}
