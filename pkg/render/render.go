// Package render draws a scheduling heatmap and its suggestions as colored
// terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/jbillay/coordino-sub005/pkg/heatmap"
	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/suggest"
)

const barScale = 4 // score points per bar cell

// scoreColor picks the bar color band for a score.
func scoreColor(score int) *color.Color {
	switch {
	case score >= 75:
		return color.New(color.FgGreen)
	case score >= 40:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// Heatmap renders the 24-hour suitability profile. Suggested hours are
// marked with '*'; entries computed without complete holiday data carry a
// '!' after the score.
func Heatmap(date string, entries [heatmap.HoursPerDay]heatmap.Entry, suggestions []suggest.Suggestion) string {
	suggested := make(map[int]bool, len(suggestions))
	for _, s := range suggestions {
		suggested[s.Hour] = true
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("📅 Meeting suitability for %s (all times UTC)\n", date))
	output.WriteString(strings.Repeat("─", 50) + "\n")

	for _, entry := range entries {
		line := fmt.Sprintf("%02d:00 ", entry.Hour)

		if suggested[entry.Hour] {
			line += color.New(color.FgCyan).Sprint("*") + " "
		} else {
			line += "  "
		}

		line += fmt.Sprintf("(%3d)", entry.Result.Score)
		if entry.Result.HasUnknownHolidayData {
			line += color.New(color.FgHiBlack).Sprint("!")
		} else {
			line += " "
		}
		line += " "

		if barLength := entry.Result.Score / barScale; barLength > 0 {
			line += scoreColor(entry.Result.Score).Sprint(strings.Repeat("█", barLength))
		} else if entry.Result.Score > 0 {
			line += scoreColor(entry.Result.Score).Sprint("·")
		}

		output.WriteString(line + "\n")
	}

	return output.String()
}

// Suggestions renders the ranked candidate list with per-tier breakdowns.
func Suggestions(suggestions []suggest.Suggestion) string {
	if len(suggestions) == 0 {
		return "No candidate times to suggest.\n"
	}

	var output strings.Builder
	output.WriteString("🏆 Best candidate times\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")

	for _, s := range suggestions {
		result := s.Result.Result
		line := fmt.Sprintf("%d. %02d:00 UTC — score %d (%d core, %d extended, %d unreasonable)",
			s.Rank, s.Hour, result.Score, result.Core, result.Extended, result.Unreasonable)
		output.WriteString(scoreColor(result.Score).Sprint(line) + "\n")

		for _, st := range result.Statuses {
			name := st.Name
			if name == "" {
				name = st.ID
			}
			output.WriteString(fmt.Sprintf("     %-20s %02d:%02d local  %s",
				name, st.LocalHour, st.LocalMinute, st.Tier))
			if st.Holiday == holiday.HolidayYes {
				output.WriteString("  (public holiday)")
			}
			output.WriteString("\n")
		}
	}

	return output.String()
}

// Warnings renders exclusion warnings, one per line.
func Warnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var output strings.Builder
	for _, w := range warnings {
		output.WriteString(color.New(color.FgYellow).Sprintf("⚠️  %s", w) + "\n")
	}
	return output.String()
}
