package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "octofit"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "refresh_total",
		Help:      "Leaderboard recomputes by result (success, error).",
	}, []string{"result"})
	refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "refresh_duration_seconds",
		Help:      "Time spent recomputing and persisting the leaderboard.",
		Buckets:   prometheus.DefBuckets,
	})
	leaderboardEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "entries",
		Help:      "Rows in the current leaderboard generation by entity type.",
	}, []string{"entity_type"})
	lastRefresh = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful leaderboard refresh.",
	})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, refreshTotal, refreshDuration, leaderboardEntries, lastRefresh)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRefresh records a recompute attempt. users and teams are only used
// when err is nil.
func RecordRefresh(duration time.Duration, users, teams int, at time.Time, err error) {
	refreshDuration.Observe(duration.Seconds())
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return
	}
	refreshTotal.WithLabelValues("success").Inc()
	leaderboardEntries.WithLabelValues("user").Set(float64(users))
	leaderboardEntries.WithLabelValues("team").Set(float64(teams))
	lastRefresh.Set(float64(at.Unix()))
}
