package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/server"
	"github.com/allyourbase/dialplan/internal/testutil"
)

func TestLogsReturnsEmptyWithoutLogBuffer(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/api/v1/logs")

	testutil.StatusCode(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	testutil.Equal(t, 0, len(body["entries"].([]any)))
	testutil.Contains(t, body["message"].(string), "not enabled")
}

func TestLogsReturnsBufferedEntries(t *testing.T) {
	lb := server.NewLogBuffer(slog.NewTextHandler(io.Discard, nil), 100)
	logger := slog.New(lb)
	srv := server.New(config.Default(), logger, newEngine(t))
	srv.SetLogBuffer(lb)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	logger.Info("test message one", "key", "value1")
	logger.Warn("test message two", "count", 42)

	w := get(t, srv, "/api/v1/logs")
	testutil.StatusCode(t, http.StatusOK, w.Code)
	entries := decode[map[string][]map[string]any](t, w)["entries"]

	// The request logger may add entries; find ours.
	var ours []map[string]any
	for _, e := range entries {
		if msg := e["message"]; msg == "test message one" || msg == "test message two" {
			ours = append(ours, e)
		}
	}
	testutil.SliceLen(t, ours, 2)
	testutil.Equal[any](t, "INFO", ours[0]["level"])
	testutil.Equal[any](t, "value1", ours[0]["attrs"].(map[string]any)["key"])
	testutil.Equal[any](t, "WARN", ours[1]["level"])
	testutil.NotNil(t, ours[1]["time"])
}

func TestStatsReportsCacheAndSessions(t *testing.T) {
	srv := newTestServer(t, nil)

	// Exercise the pattern cache and open a session.
	testutil.Equal(t, http.StatusOK, get(t, srv, numbersPath(map[string]string{"number": "+41 44 668 18 00"})).Code)
	createSession(t, srv, "US")

	w := get(t, srv, "/api/v1/stats")
	testutil.StatusCode(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)

	testutil.True(t, stats["uptime_seconds"].(float64) >= 0, "uptime should be non-negative")
	testutil.True(t, stats["goroutines"].(float64) > 0, "goroutines should be positive")
	testutil.Contains(t, stats["go_version"].(string), "go1.")
	testutil.True(t, stats["pattern_cache_misses"].(float64) > 0, "patterns were compiled")
	testutil.True(t, stats["pattern_cache_len"].(float64) > 0, "patterns are cached")
	testutil.Equal(t, 1.0, stats["sessions"].(float64))
	testutil.Equal(t, 0.0, stats["event_streams"].(float64))
	testutil.Equal(t, 1.0, stats["rate_limited_clients"].(float64))
}

func TestStatsWithoutRateLimiter(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.RateLimit = 0 })
	stats := decode[map[string]any](t, get(t, srv, "/api/v1/stats"))
	testutil.Nil(t, stats["rate_limited_clients"])
}
