package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arena_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arena_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arena_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	tradeExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arena_layer",
			Subsystem: "trading",
			Name:      "executions_total",
			Help:      "Total number of trade executions.",
		},
		[]string{"status"},
	)

	tradeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arena_layer",
			Subsystem: "trading",
			Name:      "execution_duration_seconds",
			Help:      "Duration of trade executions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"status"},
	)

	perpsSyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arena_layer",
			Subsystem: "perps",
			Name:      "sync_runs_total",
			Help:      "Total number of perps sync passes.",
		},
		[]string{"competition_id", "success"},
	)

	perpsAgentsSynced = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arena_layer",
			Subsystem: "perps",
			Name:      "agents_synced",
			Help:      "Agents synced in the most recent pass per competition.",
		},
		[]string{"competition_id"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		tradeExecutions,
		tradeDuration,
		perpsSyncRuns,
		perpsAgentsSynced,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordTradeExecution records metrics for one trade attempt.
func RecordTradeExecution(status string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	tradeExecutions.WithLabelValues(status).Inc()
	tradeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPerpsSync records the outcome of one perps sync pass.
func RecordPerpsSync(competitionID string, agentsSynced int, success bool) {
	if competitionID == "" {
		competitionID = "unknown"
	}
	result := "false"
	if success {
		result = "true"
	}
	perpsSyncRuns.WithLabelValues(competitionID, result).Inc()
	perpsAgentsSynced.WithLabelValues(competitionID).Set(float64(agentsSynced))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack delegates to the underlying writer so websocket upgrades keep
// working through the instrumented chain.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// canonicalPath collapses IDs so the path label stays low-cardinality.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "competitions":
		if len(parts) == 1 {
			return "/competitions"
		}
		if len(parts) == 2 {
			return "/competitions/:id"
		}
		return "/competitions/:id/" + parts[2]
	case "agents":
		if len(parts) == 1 {
			return "/agents"
		}
		if len(parts) == 2 {
			return "/agents/:id"
		}
		return "/agents/:id/" + parts[2]
	default:
		return "/" + parts[0]
	}
}
