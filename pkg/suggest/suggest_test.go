package suggest

import (
	"reflect"
	"testing"

	"github.com/jbillay/coordino-sub005/pkg/equity"
	"github.com/jbillay/coordino-sub005/pkg/heatmap"
)

func entriesWithScores(scores map[int]int) [heatmap.HoursPerDay]heatmap.Entry {
	var entries [heatmap.HoursPerDay]heatmap.Entry
	for hour := 0; hour < heatmap.HoursPerDay; hour++ {
		entries[hour] = heatmap.Entry{
			Hour:   hour,
			Result: equity.Result{Score: scores[hour]},
		}
	}
	return entries
}

func hours(suggestions []Suggestion) []int {
	out := make([]int, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Hour
	}
	return out
}

func TestTopNOrdersByScore(t *testing.T) {
	entries := entriesWithScores(map[int]int{8: 90, 14: 75, 21: 100})

	got := TopN(entries, 3, DefaultAnchorHour)
	want := []int{21, 8, 14}
	if !reflect.DeepEqual(hours(got), want) {
		t.Errorf("TopN hours = %v, want %v", hours(got), want)
	}
	for i, s := range got {
		if s.Rank != i+1 {
			t.Errorf("suggestion %d has rank %d, want %d", i, s.Rank, i+1)
		}
	}
}

func TestTopNBreaksTiesByAnchorDistance(t *testing.T) {
	// Hours 3, 10 and 20 all score 80; anchor 12 prefers 10 (distance 2),
	// then 20 (distance 8), then 3 (distance 9).
	entries := entriesWithScores(map[int]int{3: 80, 10: 80, 20: 80})

	got := hours(TopN(entries, 3, 12))
	want := []int{10, 20, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("anchor tie-break order = %v, want %v", got, want)
	}
}

func TestTopNAnchorDistanceIsCircular(t *testing.T) {
	// With anchor 23, hour 1 is distance 2 and hour 19 is distance 4.
	entries := entriesWithScores(map[int]int{1: 80, 19: 80})

	got := hours(TopN(entries, 2, 23))
	want := []int{1, 19}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("circular tie-break order = %v, want %v", got, want)
	}
}

func TestTopNBreaksRemainingTiesByAscendingHour(t *testing.T) {
	// Hours 8 and 16 are equidistant from anchor 12 with equal scores;
	// the lower hour must win for determinism.
	entries := entriesWithScores(map[int]int{8: 80, 16: 80})

	got := hours(TopN(entries, 2, 12))
	want := []int{8, 16}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ascending-hour tie-break order = %v, want %v", got, want)
	}
}

func TestTopNIsDeterministic(t *testing.T) {
	// All-equal scores exercise every tie-break rule at once.
	entries := entriesWithScores(map[int]int{})
	for hour := 0; hour < heatmap.HoursPerDay; hour++ {
		entries[hour].Result.Score = 42
	}

	first := TopN(entries, heatmap.HoursPerDay, DefaultAnchorHour)
	second := TopN(entries, heatmap.HoursPerDay, DefaultAnchorHour)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("TopN is not deterministic for identical input")
	}

	// Full ranking of equal scores: anchor outward, lower hour first.
	want := []int{12, 11, 13, 10, 14, 9, 15, 8, 16, 7, 17, 6, 18, 5, 19, 4, 20, 3, 21, 2, 22, 1, 23, 0}
	if !reflect.DeepEqual(hours(first), want) {
		t.Errorf("full tie-break ranking = %v, want %v", hours(first), want)
	}
}

func TestTopNClampsN(t *testing.T) {
	entries := entriesWithScores(map[int]int{0: 10})

	if got := TopN(entries, 0, DefaultAnchorHour); got != nil {
		t.Errorf("TopN(0) = %v, want nil", got)
	}
	if got := TopN(entries, -2, DefaultAnchorHour); got != nil {
		t.Errorf("TopN(-2) = %v, want nil", got)
	}
	if got := TopN(entries, 99, DefaultAnchorHour); len(got) != heatmap.HoursPerDay {
		t.Errorf("TopN(99) returned %d suggestions, want %d", len(got), heatmap.HoursPerDay)
	}
}
