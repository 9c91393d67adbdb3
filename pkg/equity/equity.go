// Package equity folds per-participant convenience statuses for one
// candidate instant into a single 0-100 fairness score.
package equity

import (
	"math"
	"time"

	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/workwindow"
)

// Weights maps each tier to its score contribution. The product
// convention is 100/50/0, but every value is configurable.
type Weights struct {
	Core         float64 `json:"core"`
	Extended     float64 `json:"extended"`
	Unreasonable float64 `json:"unreasonable"`
}

// DefaultWeights returns the 100/50/0 convention.
func DefaultWeights() Weights {
	return Weights{Core: 100, Extended: 50, Unreasonable: 0}
}

// ParticipantStatus is one participant's situation at one candidate
// instant.
type ParticipantStatus struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Date        string          `json:"local_date"`
	Weekday     time.Weekday    `json:"local_weekday"`
	LocalHour   int             `json:"local_hour"`
	LocalMinute int             `json:"local_minute"`
	Tier        workwindow.Tier `json:"tier"`
	Holiday     holiday.Status  `json:"holiday"`
}

// Result aggregates one candidate instant across all participants.
type Result struct {
	Statuses              []ParticipantStatus `json:"statuses"`
	Score                 int                 `json:"score"`
	Core                  int                 `json:"core"`
	Extended              int                 `json:"extended"`
	Unreasonable          int                 `json:"unreasonable"`
	HasUnknownHolidayData bool                `json:"has_unknown_holiday_data"`
}

// Score computes the aggregate fairness score: the arithmetic mean of
// per-participant weights, rounded to the nearest integer. A participant on
// a confirmed holiday contributes 0 regardless of tier; an unknown holiday
// status leaves the weight untouched but raises the sticky flag. The score
// is independent of input order. Zero participants yield a zero result, not
// an error.
func Score(statuses []ParticipantStatus, weights Weights) Result {
	result := Result{Statuses: statuses}
	if len(statuses) == 0 {
		return result
	}

	var sum float64
	for _, st := range statuses {
		switch st.Tier {
		case workwindow.TierCore:
			result.Core++
		case workwindow.TierExtended:
			result.Extended++
		case workwindow.TierUnreasonable:
			result.Unreasonable++
		}

		if st.Holiday == holiday.HolidayUnknown {
			result.HasUnknownHolidayData = true
		}
		sum += participantWeight(st, weights)
	}

	result.Score = int(math.Round(sum / float64(len(statuses))))
	return result
}

func participantWeight(st ParticipantStatus, weights Weights) float64 {
	// A holiday overrides any time-of-day convenience.
	if st.Holiday == holiday.HolidayYes {
		return 0
	}
	switch st.Tier {
	case workwindow.TierCore:
		return weights.Core
	case workwindow.TierExtended:
		return weights.Extended
	default:
		return weights.Unreasonable
	}
}
