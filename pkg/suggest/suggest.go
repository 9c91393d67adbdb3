// Package suggest ranks heatmap entries into the best candidate meeting
// hours. The ordering is total and deterministic so identical inputs always
// render identically.
package suggest

import (
	"sort"

	"github.com/jbillay/coordino-sub005/pkg/heatmap"
)

// DefaultAnchorHour is the neutral preference used to break score ties:
// midday UTC, so no single timezone is systematically favored.
const DefaultAnchorHour = 12

// Suggestion is a heatmap entry promoted to a ranked candidate.
type Suggestion struct {
	Result heatmap.Entry `json:"entry"`
	Rank   int           `json:"rank"`
	Hour   int           `json:"hour"`
}

// TopN returns the n best hours of the heatmap, sorted by descending score.
// Ties are broken by circular distance to the anchor hour, then by
// ascending hour. n is clamped to [0, 24].
func TopN(entries [heatmap.HoursPerDay]heatmap.Entry, n, anchorHour int) []Suggestion {
	if n <= 0 {
		return nil
	}
	if n > heatmap.HoursPerDay {
		n = heatmap.HoursPerDay
	}
	anchorHour = ((anchorHour % 24) + 24) % 24

	ranked := make([]heatmap.Entry, heatmap.HoursPerDay)
	copy(ranked, entries[:])

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		da, db := circularDistance(a.Hour, anchorHour), circularDistance(b.Hour, anchorHour)
		if da != db {
			return da < db
		}
		return a.Hour < b.Hour
	})

	suggestions := make([]Suggestion, n)
	for i := 0; i < n; i++ {
		suggestions[i] = Suggestion{
			Rank:   i + 1,
			Hour:   ranked[i].Hour,
			Result: ranked[i],
		}
	}
	return suggestions
}

// circularDistance is the hour distance on a 24-hour clock face.
func circularDistance(hour, anchor int) int {
	d := hour - anchor
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}
