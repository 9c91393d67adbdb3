// Package main implements the coordino web server: a JSON API that scores
// a day of candidate meeting times for an ad-hoc set of participants.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/jbillay/coordino-sub005/pkg/heatmap"
	"github.com/jbillay/coordino-sub005/pkg/holiday"
	"github.com/jbillay/coordino-sub005/pkg/meeting"
	"github.com/jbillay/coordino-sub005/pkg/schedule"
	"github.com/jbillay/coordino-sub005/pkg/suggest"
)

var (
	port       = flag.String("port", "8080", "Port for web server")
	holidayURL = flag.String("holiday-url", "", "Base URL of the public holiday API")
	cacheDir   = flag.String("cache-dir", "", "Holiday cache directory (or set CACHE_DIR)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

const maxRequestBody = 256 << 10 // 256 KiB

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 15 requests per minute per IP
	if len(valid) >= 15 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("coordino Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"cache_dir", *cacheDir,
		"holiday_url", *holidayURL)

	clientOpts := []holiday.Option{}
	if *holidayURL != "" {
		clientOpts = append(clientOpts, holiday.WithBaseURL(*holidayURL))
	}
	if *cacheDir != "" {
		clientOpts = append(clientOpts, holiday.WithSnapshotDir(*cacheDir))
	}
	holidays := holiday.NewClient(context.Background(), logger, clientOpts...)
	defer func() {
		if err := holidays.Close(); err != nil {
			logger.Error("Failed to close holiday client", "error", err)
		}
	}()

	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](12 * time.Hour),
	})

	server := &server{
		holidays: holidays,
		cache:    cache,
		limiter:  newRateLimiter(),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", server.handleHealth)
	mux.HandleFunc("POST /api/v1/heatmap", server.handleHeatmap)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           server.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

type server struct {
	holidays *holiday.Client
	cache    *otter.Cache[string, []byte]
	limiter  *rateLimiter
	logger   *slog.Logger
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				clientIP := strings.Split(r.RemoteAddr, ":")[0]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP,
					"user_agent", r.Header.Get("User-Agent"),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Error("Failed to write health response", "error", err)
	}
}

// heatmapRequest is the body of POST /api/v1/heatmap.
type heatmapRequest struct {
	Date         string                 `json:"date"`
	Participants []schedule.Participant `json:"participants"`
	TopN         *int                   `json:"top_n,omitempty"`
	AnchorHour   *int                   `json:"anchor_hour,omitempty"`
}

type heatmapResponse struct {
	Date                  string                             `json:"date"`
	Heatmap               [heatmap.HoursPerDay]heatmap.Entry `json:"heatmap"`
	Suggestions           []suggest.Suggestion               `json:"suggestions"`
	Warnings              []string                           `json:"warnings"`
	HasUnknownHolidayData bool                               `json:"has_unknown_holiday_data"`
}

func (s *server) handleHeatmap(writer http.ResponseWriter, request *http.Request) {
	start := time.Now()
	clientIP := strings.Split(request.RemoteAddr, ":")[0]
	requestID := writer.Header().Get("X-Request-ID")

	s.logger.Info("Heatmap request started",
		"request_id", requestID,
		"client_ip", clientIP,
		"user_agent", request.Header.Get("User-Agent"))

	if !s.limiter.allow(clientIP) {
		s.logger.Error("Rate limit exceeded",
			"request_id", requestID,
			"client_ip", clientIP)
		http.Error(writer, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(io.LimitReader(request.Body, maxRequestBody))
	if err != nil {
		s.logger.Error("Failed to read request body",
			"request_id", requestID,
			"error", err)
		http.Error(writer, "Invalid request", http.StatusBadRequest)
		return
	}

	var req heatmapRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger.Error("Invalid request body",
			"request_id", requestID,
			"error", err,
			"client_ip", clientIP)
		http.Error(writer, "Invalid request", http.StatusBadRequest)
		return
	}

	if errMsg := validateRequest(&req); errMsg != "" {
		s.logger.Error("Invalid request",
			"request_id", requestID,
			"reason", errMsg,
			"client_ip", clientIP)
		http.Error(writer, errMsg, http.StatusBadRequest)
		return
	}

	// Identical requests within the cache TTL are answered from memory.
	sum := sha256.Sum256(body)
	cacheKey := "heatmap:" + hex.EncodeToString(sum[:])
	if data, ok := s.cache.GetIfPresent(cacheKey); ok {
		writer.Header().Set("Content-Type", "application/json")
		writer.Header().Set("X-Cache", "memory-hit")
		if _, err := writer.Write(data); err != nil {
			s.logger.Error("Failed to write cached response",
				"request_id", requestID,
				"error", err)
		}
		s.logger.Info("Heatmap request completed (cache)",
			"request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	ctx, cancel := context.WithTimeout(request.Context(), 30*time.Second)
	defer cancel()

	engineOpts := []schedule.Option{
		schedule.WithHolidaySource(s.holidays),
	}
	if req.AnchorHour != nil {
		engineOpts = append(engineOpts, schedule.WithAnchorHour(*req.AnchorHour))
	}
	engine := schedule.NewWithLogger(s.logger, engineOpts...)

	entries, warnings, err := engine.Heatmap(ctx, req.Participants, req.Date)
	if err != nil {
		s.logger.Error("Evaluation failed",
			"request_id", requestID,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		http.Error(writer, "Evaluation failed", http.StatusUnprocessableEntity)
		return
	}

	topN := 3
	if req.TopN != nil {
		topN = *req.TopN
	}
	suggestions := suggest.TopN(entries, topN, engine.AnchorHour())

	unknown := false
	for _, entry := range entries {
		if entry.Result.HasUnknownHolidayData {
			unknown = true
			break
		}
	}

	resp := heatmapResponse{
		Date:                  req.Date,
		Heatmap:               entries,
		Suggestions:           suggestions,
		Warnings:              warnings,
		HasUnknownHolidayData: unknown,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to encode response",
			"request_id", requestID,
			"error", err)
		http.Error(writer, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.cache.Set(cacheKey, data)

	writer.Header().Set("Content-Type", "application/json")
	writer.Header().Set("X-Cache", "miss")
	if _, err := writer.Write(data); err != nil {
		s.logger.Error("Failed to write response",
			"request_id", requestID,
			"error", err)
	}

	s.logger.Info("Heatmap request completed",
		"request_id", requestID,
		"participants", len(req.Participants),
		"date", req.Date,
		"duration_ms", time.Since(start).Milliseconds())
}

// validateRequest checks structural limits before any work is scheduled.
// It returns an empty string when the request is acceptable.
func validateRequest(req *heatmapRequest) string {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return "Invalid date: want YYYY-MM-DD"
	}
	if len(req.Participants) == 0 {
		return "At least one participant is required"
	}
	if len(req.Participants) > meeting.MaxParticipants {
		return fmt.Sprintf("Too many participants: at most %d", meeting.MaxParticipants)
	}
	for _, p := range req.Participants {
		if p.ID == "" || p.Timezone == "" {
			return "Every participant needs an id and a timezone"
		}
	}
	if req.TopN != nil && (*req.TopN < 0 || *req.TopN > heatmap.HoursPerDay) {
		return "top_n out of range"
	}
	if req.AnchorHour != nil && (*req.AnchorHour < 0 || *req.AnchorHour > 23) {
		return "anchor_hour out of range"
	}
	return ""
}
