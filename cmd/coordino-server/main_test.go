package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/jbillay/coordino-sub005/pkg/holiday"
)

func testServer(t *testing.T) *server {
	t.Helper()

	// Calendar API that knows no holidays at all.
	calendars := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`[]`)); err != nil {
			t.Errorf("write calendar response: %v", err)
		}
	}))
	t.Cleanup(calendars.Close)

	logger := slog.New(slog.DiscardHandler)
	holidays := holiday.NewClient(t.Context(), logger, holiday.WithBaseURL(calendars.URL))
	t.Cleanup(func() {
		if err := holidays.Close(); err != nil {
			t.Errorf("close holiday client: %v", err)
		}
	})

	return &server{
		holidays: holidays,
		cache: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      100,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](time.Hour),
		}),
		limiter: newRateLimiter(),
		logger:  logger,
	}
}

const sampleRequest = `{
	"date": "2026-01-14",
	"top_n": 3,
	"participants": [
		{"id": "ada", "timezone": "America/New_York", "country_code": "US"},
		{"id": "haruto", "timezone": "Asia/Tokyo", "country_code": "JP"}
	]
}`

func TestHandleHeatmap(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/heatmap", strings.NewReader(sampleRequest))
	rec := httptest.NewRecorder()
	srv.handleHeatmap(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp heatmapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Date != "2026-01-14" {
		t.Errorf("date = %q", resp.Date)
	}
	if len(resp.Suggestions) != 3 {
		t.Errorf("suggestions = %d, want 3", len(resp.Suggestions))
	}
	for hour, entry := range resp.Heatmap {
		if entry.Hour != hour {
			t.Errorf("heatmap[%d].Hour = %d", hour, entry.Hour)
		}
	}
	if resp.HasUnknownHolidayData {
		t.Error("holiday data was complete, flag should be clear")
	}
}

func TestHandleHeatmapCachesIdenticalRequests(t *testing.T) {
	srv := testServer(t)

	for i, want := range []string{"miss", "memory-hit"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/heatmap", strings.NewReader(sampleRequest))
		rec := httptest.NewRecorder()
		srv.handleHeatmap(rec, req)
		if got := rec.Header().Get("X-Cache"); got != want {
			t.Errorf("request %d: X-Cache = %q, want %q", i, got, want)
		}
	}
}

func TestHandleHeatmapRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"bad date", `{"date": "14/01/2026", "participants": [{"id": "a", "timezone": "UTC"}]}`},
		{"no participants", `{"date": "2026-01-14", "participants": []}`},
		{"missing timezone", `{"date": "2026-01-14", "participants": [{"id": "a"}]}`},
		{"anchor out of range", `{"date": "2026-01-14", "anchor_hour": 24, "participants": [{"id": "a", "timezone": "UTC"}]}`},
	}

	srv := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/heatmap", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.handleHeatmap(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	for i := range 15 {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("16th request within a minute should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients are limited independently")
	}
}

func TestWrapSetsSecurityHeaders(t *testing.T) {
	srv := testServer(t)
	handler := srv.wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/heatmap", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "no-store") {
		t.Error("API responses must not be cacheable downstream")
	}
}

func TestWrapRecoversFromPanics(t *testing.T) {
	srv := testServer(t)
	handler := srv.wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/heatmap", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
