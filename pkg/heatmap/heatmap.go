// Package heatmap evaluates every hour of a reference UTC date across all
// participants and scores each one for fairness. The 24 per-hour
// computations are mutually independent; they are evaluated concurrently as
// a performance optimization only, and the output is identical run to run.
package heatmap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jbillay/coordino-sub005/pkg/equity"
	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/tzlocal"
	"github.com/jbillay/coordino-sub005/pkg/workwindow"
)

// HoursPerDay is the number of entries in a heatmap.
const HoursPerDay = 24

const defaultWorkers = 8

// Participant is a scheduling participant whose timezone has already been
// resolved. Construction (and exclusion of invalid timezones) is the
// engine's job.
type Participant struct {
	Location *time.Location
	ID       string
	Name     string
	Country  string
	Profile  workwindow.Profile
}

// Config carries the scoring knobs and the optional holiday source.
type Config struct {
	Source  holiday.Source // nil disables lookups; statuses become unknown
	Logger  *slog.Logger
	Weights equity.Weights
	Grace   float64
	Workers int
}

// Entry is one hour of the day paired with its fairness result.
type Entry struct {
	Result equity.Result `json:"result"`
	Hour   int           `json:"hour"`
}

// Statuses classifies every participant at one candidate instant. The
// lookup function answers pre-resolved holiday queries and must be safe for
// concurrent use (the builder passes an immutable map closure).
func Statuses(instant time.Time, participants []Participant, grace float64, lookup func(country, date string) holiday.Status) []equity.ParticipantStatus {
	statuses := make([]equity.ParticipantStatus, 0, len(participants))
	for _, p := range participants {
		clock := tzlocal.AtLocation(instant, p.Location)
		tier := workwindow.Classify(tzlocal.HourFraction(clock), clock.Weekday, p.Profile, grace)
		statuses = append(statuses, equity.ParticipantStatus{
			ID:          p.ID,
			Name:        p.Name,
			Date:        clock.Date,
			Weekday:     clock.Weekday,
			LocalHour:   clock.Hour,
			LocalMinute: clock.Minute,
			Tier:        tier,
			Holiday:     lookup(p.Country, clock.Date),
		})
	}
	return statuses
}

// ResolveHolidays collects every distinct (country, local date) pair the
// given instants touch and resolves each exactly once. A country whose
// first lookup fails is not attempted again within the run; its remaining
// dates stay unknown. The returned map is immutable afterwards and safe to
// share across goroutines.
func ResolveHolidays(ctx context.Context, cfg Config, participants []Participant, instants []time.Time) map[string]holiday.Status {
	resolved := make(map[string]holiday.Status)
	if cfg.Source == nil {
		return resolved
	}

	failed := make(map[string]bool)
	for _, instant := range instants {
		for _, p := range participants {
			if p.Country == "" {
				continue
			}
			clock := tzlocal.AtLocation(instant, p.Location)
			key := holidayKey(p.Country, clock.Date)
			if _, done := resolved[key]; done {
				continue
			}
			if failed[p.Country] {
				resolved[key] = holiday.HolidayUnknown
				continue
			}

			status, err := cfg.Source.IsHoliday(ctx, clock.Date, p.Country)
			if err != nil {
				failed[p.Country] = true
				if cfg.Logger != nil {
					cfg.Logger.Warn("holiday lookup failed, degrading to unknown",
						"country", p.Country, "date", clock.Date, "error", err)
				}
			}
			resolved[key] = status
		}
	}
	return resolved
}

// Lookup wraps a resolved-status map as the lookup function Statuses
// expects. Missing countries or pairs resolve to unknown.
func Lookup(resolved map[string]holiday.Status) func(country, date string) holiday.Status {
	return func(country, date string) holiday.Status {
		if country == "" {
			return holiday.HolidayUnknown
		}
		if status, ok := resolved[holidayKey(country, date)]; ok {
			return status
		}
		return holiday.HolidayUnknown
	}
}

// Build scores all 24 UTC-aligned hours of the reference date
// ("2006-01-02"). Holiday statuses are resolved up front (deduplicated per
// country and date); the hour evaluations then fan out over a bounded set
// of goroutines reading only immutable inputs.
func Build(ctx context.Context, participants []Participant, date string, cfg Config) ([HoursPerDay]Entry, error) {
	var entries [HoursPerDay]Entry

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return entries, fmt.Errorf("invalid reference date %q: %w", date, err)
	}

	instants := make([]time.Time, HoursPerDay)
	for hour := range instants {
		instants[hour] = time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	}

	resolved := ResolveHolidays(ctx, cfg, participants, instants)
	lookup := Lookup(resolved)

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for hour := range instants {
		wg.Add(1)
		sem <- struct{}{}
		go func(hour int) {
			defer wg.Done()
			defer func() { <-sem }()

			statuses := Statuses(instants[hour], participants, cfg.Grace, lookup)
			entries[hour] = Entry{
				Hour:   hour,
				Result: equity.Score(statuses, cfg.Weights),
			}
		}(hour)
	}
	wg.Wait()

	return entries, nil
}

func holidayKey(country, date string) string {
	return country + "/" + date
}
