package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Inference metrics
	diagnosesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnoses_total",
			Help: "Total number of diagnosis runs",
		},
		[]string{"strategy", "outcome"},
	)

	diagnosisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diagnosis_duration_seconds",
			Help:    "Time spent in fuzzy inference",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"strategy"},
	)

	// Knowledge base metrics
	knowledgeRowsRejected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "knowledge_rows_rejected",
			Help: "Rows rejected by the last knowledge base load",
		},
		[]string{"table"},
	)

	knowledgeRulesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_rules_active",
			Help: "Number of rules in the active knowledge base",
		},
	)

	knowledgeReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_reloads_total",
			Help: "Total number of knowledge base loads",
		},
		[]string{"status"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"source", "table"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routePattern labels requests by their chi route so raw paths cannot blow up cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordDiagnosis records one inference run. outcome is "ok", "no_evidence" or "error".
func RecordDiagnosis(strategy, outcome string, duration time.Duration) {
	diagnosesTotal.WithLabelValues(strategy, outcome).Inc()
	diagnosisDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordKnowledgeLoad publishes the result of a knowledge base load
func RecordKnowledgeLoad(rejected map[string]int, rules int) {
	for table, n := range rejected {
		knowledgeRowsRejected.WithLabelValues(table).Set(float64(n))
	}
	knowledgeRulesActive.Set(float64(rules))
	knowledgeReloadsTotal.WithLabelValues("success").Inc()
}

func RecordKnowledgeLoadFailure() {
	knowledgeReloadsTotal.WithLabelValues("failure").Inc()
}

// RecordDBQuery records a reference table read
func RecordDBQuery(source, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(source, table).Observe(duration.Seconds())
}
