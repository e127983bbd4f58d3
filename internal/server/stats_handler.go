package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/allyourbase/dialplan/internal/httputil"
)

// handleLogs returns recent server log entries.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"entries": []any{},
			"message": "log buffering not enabled",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": s.logBuffer.Entries(),
	})
}

// handleStats returns runtime, pattern cache and session statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	cache := s.engine.PatternCacheStats()
	stats := map[string]any{
		"uptime_seconds":       int(time.Since(s.startTime).Seconds()),
		"go_version":           runtime.Version(),
		"goroutines":           runtime.NumGoroutine(),
		"memory_alloc":         mem.Alloc,
		"pattern_cache_hits":   cache.Hits,
		"pattern_cache_misses": cache.Misses,
		"pattern_cache_len":    cache.Len,
		"sessions":             s.sessions.len(),
		"event_streams":        s.events.ClientCount(),
	}
	if s.limiter != nil {
		stats["rate_limited_clients"] = s.limiter.visitorCount()
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
