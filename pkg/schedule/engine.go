// Package schedule is the cross-timezone meeting scheduling engine: a
// pure, stateless pipeline from {participants, date} to fairness scores,
// a 24-hour suitability heatmap, and ranked candidate times. Every call is
// independent; the engine holds configuration only, never results.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jbillay/coordino-sub005/pkg/equity"
	"github.com/jbillay/coordino-sub005/pkg/heatmap"
	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/suggest"
	"github.com/jbillay/coordino-sub005/pkg/workwindow"
)

// Engine evaluates candidate meeting times. Construct once, share freely:
// all methods are safe for concurrent use.
type Engine struct {
	logger          *slog.Logger
	source          holiday.Source
	countryProfiles map[string]workwindow.Profile
	defaultProfile  workwindow.Profile
	weights         equity.Weights
	grace           float64
	anchorHour      int
	workers         int
}

// NewWithLogger creates an Engine with a custom logger.
func NewWithLogger(logger *slog.Logger, opts ...Option) *Engine {
	optHolder := &OptionHolder{}
	for _, opt := range opts {
		opt(optHolder)
	}

	engine := &Engine{
		logger:          logger,
		source:          optHolder.source,
		countryProfiles: optHolder.countryProfiles,
		defaultProfile:  workwindow.DefaultProfile(),
		weights:         equity.DefaultWeights(),
		grace:           workwindow.DefaultGraceHours,
		anchorHour:      suggest.DefaultAnchorHour,
		workers:         optHolder.workers,
	}
	if optHolder.defaultProfile != nil {
		engine.defaultProfile = *optHolder.defaultProfile
	}
	if optHolder.weights != nil {
		engine.weights = *optHolder.weights
	}
	if optHolder.grace != nil {
		engine.grace = *optHolder.grace
	}
	if optHolder.anchorHour != nil {
		engine.anchorHour = *optHolder.anchorHour
	}
	return engine
}

// AnchorHour returns the configured tie-break anchor.
func (e *Engine) AnchorHour() int {
	return e.anchorHour
}

// resolve converts caller participants into evaluated ones, excluding any
// with an unrecognized timezone. Exclusion is per participant: one bad
// record never aborts a batch. The warnings list the excluded IDs.
func (e *Engine) resolve(participants []Participant) (resolved []heatmap.Participant, warnings []string) {
	resolved = make([]heatmap.Participant, 0, len(participants))
	for _, p := range participants {
		loc, err := time.LoadLocation(p.Timezone)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("participant %s: unknown timezone %q", p.ID, p.Timezone))
			e.logger.Warn("excluding participant with invalid timezone",
				"participant", p.ID, "timezone", p.Timezone)
			continue
		}
		resolved = append(resolved, heatmap.Participant{
			ID:       p.ID,
			Name:     p.DisplayName,
			Location: loc,
			Country:  p.CountryCode,
			Profile:  e.profileFor(p),
		})
	}
	return resolved, warnings
}

// profileFor picks the participant's work profile: their own override,
// else their country's configuration, else the global default. The
// substitution is transparent; no error is ever raised for a missing
// profile.
func (e *Engine) profileFor(p Participant) workwindow.Profile {
	if p.Profile != nil {
		return *p.Profile
	}
	if p.CountryCode != "" {
		if profile, ok := e.countryProfiles[p.CountryCode]; ok {
			return profile
		}
	}
	return e.defaultProfile
}

func (e *Engine) heatmapConfig() heatmap.Config {
	return heatmap.Config{
		Source:  e.source,
		Logger:  e.logger,
		Weights: e.weights,
		Grace:   e.grace,
		Workers: e.workers,
	}
}

// Evaluate scores a single candidate instant (UTC) across all
// participants. Participants with invalid timezones are excluded and named
// in the warnings; an empty or fully excluded set yields the neutral zero
// result.
func (e *Engine) Evaluate(ctx context.Context, participants []Participant, instant time.Time) (equity.Result, []string) {
	resolved, warnings := e.resolve(participants)
	cfg := e.heatmapConfig()

	instant = instant.UTC()
	statuses := heatmap.Statuses(instant, resolved, e.grace,
		heatmap.Lookup(heatmap.ResolveHolidays(ctx, cfg, resolved, []time.Time{instant})))
	return equity.Score(statuses, e.weights), warnings
}

// Heatmap scores every UTC-aligned hour of the reference date
// ("2006-01-02"): exactly 24 entries, hours ascending.
func (e *Engine) Heatmap(ctx context.Context, participants []Participant, date string) ([heatmap.HoursPerDay]heatmap.Entry, []string, error) {
	resolved, warnings := e.resolve(participants)
	entries, err := heatmap.Build(ctx, resolved, date, e.heatmapConfig())
	if err != nil {
		return entries, warnings, err
	}
	return entries, warnings, nil
}

// Suggest returns the n best hours of the reference date, ranked by the
// engine's anchor. See suggest.TopN for the tie-break rules.
func (e *Engine) Suggest(ctx context.Context, participants []Participant, date string, n int) ([]suggest.Suggestion, []string, error) {
	entries, warnings, err := e.Heatmap(ctx, participants, date)
	if err != nil {
		return nil, warnings, err
	}
	return suggest.TopN(entries, n, e.anchorHour), warnings, nil
}
