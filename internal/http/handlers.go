package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type appMetrics struct {
	started         time.Time
	expensesCreated int64
	interpreted     int64
	emptyQueries    int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.appMetrics.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the backend and reports cache and limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	checks["backend"] = "ok"
	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	if s.deps.Voice == nil || s.deps.Catalog == nil {
		checks["voice"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["voice"] = "ok"
	}

	checks["cache"] = map[string]any{
		"overview_entries": s.overviewCache.Size(),
		"status":           "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	overview := s.overviewCache.Stats()

	var catalogSize int
	var catalogHits, catalogMisses uint64
	if s.deps.Catalog != nil {
		st := s.deps.Catalog.Stats()
		catalogSize, catalogHits, catalogMisses = st.Size, st.Hits, st.Misses
	}

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("http_response_time_avg_us", "Average response time in microseconds", "gauge", traceMetrics.AverageResponseTime)
	metric("expenses_total", "Total number of expenses created", "counter", atomic.LoadInt64(&s.appMetrics.expensesCreated))
	metric("voice_interpretations_total", "Utterances sent to interpretation", "counter", atomic.LoadInt64(&s.appMetrics.interpreted))
	metric("voice_empty_queries_total", "Utterances without an item phrase", "counter", atomic.LoadInt64(&s.appMetrics.emptyQueries))

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"overview\"} %d\n", overview.Size)
	fmt.Fprintf(w, "cache_entries{type=\"catalog\"} %d\n\n", catalogSize)
	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total{type=\"overview\"} %d\n", overview.Hits)
	fmt.Fprintf(w, "cache_hits_total{type=\"catalog\"} %d\n\n", catalogHits)
	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total{type=\"overview\"} %d\n", overview.Misses)
	fmt.Fprintf(w, "cache_misses_total{type=\"catalog\"} %d\n\n", catalogMisses)

	metric("rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", s.now().Sub(s.appMetrics.started).Seconds()))
}
