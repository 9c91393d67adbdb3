// Package roster loads the YAML participant roster consumed by the CLI and
// server: the participant list, per-country work-hour configuration, and
// optional scheduling defaults.
package roster

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbillay/coordino-sub005/pkg/schedule"
	"github.com/jbillay/coordino-sub005/pkg/workwindow"
)

// windowConfig is the YAML shape of a work profile: weekday names and
// "HH:MM" boundaries.
type windowConfig struct {
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
	Days  []string `yaml:"days"`
}

// participantConfig is the YAML shape of one participant.
type participantConfig struct {
	Work     *windowConfig `yaml:"work,omitempty"`
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Timezone string        `yaml:"timezone"`
	Country  string        `yaml:"country,omitempty"`
}

// fileConfig is the top-level YAML document.
type fileConfig struct {
	Countries      map[string]windowConfig `yaml:"countries,omitempty"`
	DefaultProfile *windowConfig           `yaml:"default_profile,omitempty"`
	AnchorHour     *int                    `yaml:"anchor_hour,omitempty"`
	Participants   []participantConfig     `yaml:"participants"`
}

// Roster is the parsed, validated roster.
type Roster struct {
	CountryProfiles map[string]workwindow.Profile
	DefaultProfile  *workwindow.Profile
	AnchorHour      *int
	Participants    []schedule.Participant
}

// Countries returns the distinct country codes present in the roster, for
// holiday prefetching.
func (r *Roster) Countries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.Participants {
		if p.CountryCode != "" && !seen[p.CountryCode] {
			seen[p.CountryCode] = true
			out = append(out, p.CountryCode)
		}
	}
	return out
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML roster document.
func Parse(data []byte) (*Roster, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if len(cfg.Participants) == 0 {
		return nil, fmt.Errorf("roster has no participants")
	}

	roster := &Roster{AnchorHour: cfg.AnchorHour}

	if cfg.DefaultProfile != nil {
		profile, err := parseWindow(*cfg.DefaultProfile)
		if err != nil {
			return nil, fmt.Errorf("default_profile: %w", err)
		}
		roster.DefaultProfile = &profile
	}

	if len(cfg.Countries) > 0 {
		roster.CountryProfiles = make(map[string]workwindow.Profile, len(cfg.Countries))
		for code, window := range cfg.Countries {
			code = strings.ToUpper(strings.TrimSpace(code))
			if len(code) != 2 {
				return nil, fmt.Errorf("country code %q: want ISO-3166 alpha-2", code)
			}
			profile, err := parseWindow(window)
			if err != nil {
				return nil, fmt.Errorf("country %s: %w", code, err)
			}
			roster.CountryProfiles[code] = profile
		}
	}

	seen := make(map[string]bool, len(cfg.Participants))
	for i, pc := range cfg.Participants {
		if pc.ID == "" {
			return nil, fmt.Errorf("participant %d: missing id", i)
		}
		if seen[pc.ID] {
			return nil, fmt.Errorf("participant %q: duplicate id", pc.ID)
		}
		seen[pc.ID] = true
		if pc.Timezone == "" {
			return nil, fmt.Errorf("participant %q: missing timezone", pc.ID)
		}

		participant := schedule.Participant{
			ID:          pc.ID,
			DisplayName: pc.Name,
			Timezone:    pc.Timezone,
			CountryCode: strings.ToUpper(strings.TrimSpace(pc.Country)),
		}
		if pc.Work != nil {
			profile, err := parseWindow(*pc.Work)
			if err != nil {
				return nil, fmt.Errorf("participant %q: %w", pc.ID, err)
			}
			participant.Profile = &profile
		}
		roster.Participants = append(roster.Participants, participant)
	}

	return roster, nil
}

func parseWindow(w windowConfig) (workwindow.Profile, error) {
	start, err := ParseClock(w.Start)
	if err != nil {
		return workwindow.Profile{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return workwindow.Profile{}, fmt.Errorf("end: %w", err)
	}
	if start >= end {
		return workwindow.Profile{}, fmt.Errorf("work window %s-%s: start must precede end", w.Start, w.End)
	}

	var days workwindow.DaySet
	if len(w.Days) == 0 {
		days = workwindow.Weekdays()
	} else {
		for _, name := range w.Days {
			day, err := workwindow.ParseDay(name)
			if err != nil {
				return workwindow.Profile{}, err
			}
			days = days.With(day)
		}
	}

	return workwindow.Profile{Days: days, Start: start, End: end}, nil
}

// ParseClock converts "HH:MM" (or "HH") to a fractional hour in [0, 24).
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty clock value")
	}

	hourPart, minutePart, hasMinutes := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock %q: hour must be 00-23", s)
	}

	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minutePart)
		if err != nil || minute < 0 || minute > 59 {
			return 0, fmt.Errorf("invalid clock %q: minute must be 00-59", s)
		}
	}

	return float64(hour) + float64(minute)/60.0, nil
}
