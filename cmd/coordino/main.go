// Package main implements the coordino CLI: it scores a day of candidate
// meeting times for a roster of participants and prints a suitability
// heatmap plus the best ranked slots.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/render"
	"github.com/jbillay/coordino-sub005/pkg/roster"
	"github.com/jbillay/coordino-sub005/pkg/schedule"
	"github.com/jbillay/coordino-sub005/pkg/suggest"
)

var (
	rosterPath = flag.String("roster", "", "Path to the YAML participant roster (required)")
	date       = flag.String("date", "", "Reference date YYYY-MM-DD (default: tomorrow, UTC)")
	topN       = flag.Int("top", 3, "Number of candidate times to suggest")
	anchorHour = flag.Int("anchor", -1, "Tie-break anchor hour 0-23 (default: roster setting or 12)")
	holidayURL = flag.String("holiday-url", "", "Base URL of the public holiday API")
	cacheDir   = flag.String("cache-dir", "", "Holiday cache directory (or set CACHE_DIR)")
	noHolidays = flag.Bool("no-holidays", false, "Skip public holiday lookups entirely")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("coordino CLI v1.0.0")
		return
	}

	if *rosterPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -roster <file> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Configure logging
	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}

	if *date == "" {
		*date = time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		logger.Error("Invalid date", "date", *date, "error", err)
		os.Exit(1)
	}

	r, err := roster.Load(*rosterPath)
	if err != nil {
		logger.Error("Failed to load roster", "path", *rosterPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engineOpts := []schedule.Option{
		schedule.WithCountryProfiles(r.CountryProfiles),
	}
	if r.DefaultProfile != nil {
		engineOpts = append(engineOpts, schedule.WithDefaultProfile(*r.DefaultProfile))
	}
	switch {
	case *anchorHour >= 0 && *anchorHour <= 23:
		engineOpts = append(engineOpts, schedule.WithAnchorHour(*anchorHour))
	case r.AnchorHour != nil:
		engineOpts = append(engineOpts, schedule.WithAnchorHour(*r.AnchorHour))
	}

	if !*noHolidays {
		clientOpts := []holiday.Option{}
		if *holidayURL != "" {
			clientOpts = append(clientOpts, holiday.WithBaseURL(*holidayURL))
		}
		if *cacheDir != "" {
			clientOpts = append(clientOpts, holiday.WithSnapshotDir(*cacheDir))
		}

		client := holiday.NewClient(ctx, logger, clientOpts...)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close holiday client", "error", err)
			}
		}()

		// Warm the calendar cache for every roster country before the
		// evaluation fan-out starts.
		client.Prefetch(ctx, r.Countries(), day.Year())

		engineOpts = append(engineOpts, schedule.WithHolidaySource(client))
	}

	engine := schedule.NewWithLogger(logger, engineOpts...)

	entries, warnings, err := engine.Heatmap(ctx, r.Participants, *date)
	if err != nil {
		logger.Error("Evaluation failed", "error", err)
		os.Exit(1)
	}
	suggestions := suggest.TopN(entries, *topN, engine.AnchorHour())

	if out := render.Warnings(warnings); out != "" {
		fmt.Fprint(os.Stderr, out)
	}
	fmt.Print(render.Heatmap(*date, entries, suggestions))
	fmt.Println()
	fmt.Print(render.Suggestions(suggestions))
}
