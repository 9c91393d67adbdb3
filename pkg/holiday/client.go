package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
)

const (
	defaultBaseURL = "https://date.nager.at"
	defaultTimeout = 3 * time.Second
	defaultTTL     = 7 * 24 * time.Hour
)

// PublicHoliday is one entry of a country's holiday calendar as served by
// Nager.Date-style APIs.
type PublicHoliday struct {
	Date        string `json:"date"` // "2006-01-02"
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	Global      bool   `json:"global"`
}

// calendar is a fetched per-(country, year) holiday list plus its fetch
// time, used for snapshot expiry.
type calendar struct {
	FetchedAt time.Time
	Holidays  []PublicHoliday
}

// Client fetches public holiday calendars over HTTP and caches them per
// (country, year). The lookup path makes exactly one attempt: an
// evaluation must resolve to unknown quickly rather than stall a heatmap.
// Retries exist only in Prefetch, which warms the cache out of band.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	cache      *otter.Cache[string, calendar]
	snapshot   *snapshotStore
	saveCancel context.CancelFunc
	baseURL    string
	saveWg     sync.WaitGroup
	timeout    time.Duration
	ttl        time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different holiday API host.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client used for calendar fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single lookup's fetch. Past it the lookup resolves
// to unknown.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTTL sets how long a fetched calendar stays valid.
func WithTTL(d time.Duration) Option {
	return func(c *Client) {
		c.ttl = d
	}
}

// WithSnapshotDir enables persisting fetched calendars to disk so CLI runs
// survive restarts without refetching.
func WithSnapshotDir(dir string) Option {
	return func(c *Client) {
		c.snapshot = &snapshotStore{dir: dir}
	}
}

// NewClient creates a holiday Client. ctx bounds the background snapshot
// saver; cancel it (or call Close) to flush and stop.
func NewClient(ctx context.Context, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		logger:  logger,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		ttl:     defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	c.cache = otter.Must(&otter.Options[string, calendar]{
		MaximumSize:      2_000,
		InitialCapacity:  64,
		ExpiryCalculator: otter.ExpiryWriting[string, calendar](c.ttl),
	})

	if c.snapshot != nil {
		c.snapshot.logger = logger
		loaded, err := c.snapshot.load()
		if err != nil {
			logger.Warn("holiday snapshot load failed", "error", err)
		}
		now := time.Now()
		for key, cal := range loaded {
			if now.Sub(cal.FetchedAt) < c.ttl {
				c.cache.Set(key, cal)
			}
		}
		if len(loaded) > 0 {
			logger.Info("holiday snapshot loaded", "calendars", c.cache.EstimatedSize())
		}
		c.startPeriodicSave(ctx)
	}

	return c
}

// IsHoliday reports whether the local date is a public holiday in the
// country. A single attempt is made; on any failure the status is
// HolidayUnknown and the error is returned for logging only.
func (c *Client) IsHoliday(ctx context.Context, date, country string) (Status, error) {
	if country == "" {
		return HolidayUnknown, nil
	}

	year, err := yearOf(date)
	if err != nil {
		return HolidayUnknown, err
	}

	cal, err := c.calendarFor(ctx, country, year)
	if err != nil {
		return HolidayUnknown, err
	}

	for _, h := range cal.Holidays {
		if h.Date == date {
			return HolidayYes, nil
		}
	}
	return HolidayNo, nil
}

// Prefetch warms the cache for the given countries and year with retries
// and backoff. Failures are logged and skipped: the lookup path will
// degrade them to unknown later.
func (c *Client) Prefetch(ctx context.Context, countries []string, year int) {
	seen := make(map[string]bool, len(countries))
	for _, country := range countries {
		country = strings.ToUpper(strings.TrimSpace(country))
		if country == "" || seen[country] {
			continue
		}
		seen[country] = true

		err := retry.Do(
			func() error {
				_, err := c.calendarFor(ctx, country, year)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(200*time.Millisecond),
			retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
			retry.MaxJitter(100*time.Millisecond),
			retry.OnRetry(func(n uint, err error) {
				c.logger.Debug("retrying holiday calendar prefetch",
					"attempt", n+1,
					"country", country,
					"year", year,
					"error", err)
			}),
		)
		if err != nil {
			c.logger.Warn("holiday calendar prefetch failed",
				"country", country, "year", year, "error", err)
		}
	}
}

// calendarFor returns the (country, year) calendar, fetching it once and
// serving every later lookup from cache.
func (c *Client) calendarFor(ctx context.Context, country string, year int) (calendar, error) {
	country = strings.ToUpper(country)
	key := fmt.Sprintf("%s/%d", country, year)

	if cal, ok := c.cache.GetIfPresent(key); ok {
		return cal, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, country)
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return calendar{}, fmt.Errorf("building holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return calendar{}, fmt.Errorf("fetching holidays for %s/%d: %w", country, year, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close holiday response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return calendar{}, fmt.Errorf("holiday API %s/%d: HTTP %d: %s", country, year, resp.StatusCode, string(body))
	}

	var holidays []PublicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return calendar{}, fmt.Errorf("decoding holidays for %s/%d: %w", country, year, err)
	}

	cal := calendar{FetchedAt: time.Now(), Holidays: holidays}
	c.cache.Set(key, cal)
	c.logger.Debug("holiday calendar fetched", "country", country, "year", year, "holidays", len(holidays))
	return cal, nil
}

func (c *Client) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()

		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.snapshot.save(c.dump()); err != nil {
					c.logger.Error("periodic holiday snapshot save failed", "error", err)
				}
			}
		}
	}()
}

// dump copies the live cache into a plain map for snapshotting.
func (c *Client) dump() map[string]calendar {
	out := make(map[string]calendar)
	now := time.Now()
	c.cache.All()(func(key string, cal calendar) bool {
		if now.Sub(cal.FetchedAt) < c.ttl {
			out[key] = cal
		}
		return true
	})
	return out
}

// Close stops the background saver and flushes the snapshot.
func (c *Client) Close() error {
	if c.snapshot == nil {
		return nil
	}
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()

	if err := c.snapshot.save(c.dump()); err != nil {
		c.logger.Error("final holiday snapshot save failed", "error", err)
		return err
	}
	return nil
}

func yearOf(date string) (int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Year(), nil
}
