package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const service = "voyager"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	geocodeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_calls_total",
			Help: "Geocoding lookups by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	feedBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_builds_total",
			Help: "Friends feed builds by outcome",
		},
		[]string{"outcome"},
	)

	feedPosts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_posts",
			Help:    "Number of posts returned per friends feed",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	toggleReverts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_reverts_total",
			Help: "Optimistic like/save toggles reverted after a failed mutation",
		},
		[]string{"kind"},
	)
)

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		httpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status), service).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path, service).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func RecordGeocode(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	geocodeCalls.WithLabelValues(op, outcome).Inc()
}

func RecordGeocodeCacheHit(op string) {
	geocodeCalls.WithLabelValues(op, "cache_hit").Inc()
}

func RecordFeedBuild(posts int, empty bool) {
	outcome := "ok"
	if empty {
		outcome = "no_friends"
	}
	feedBuilds.WithLabelValues(outcome).Inc()
	feedPosts.Observe(float64(posts))
}

func RecordToggleRevert(kind string) {
	toggleReverts.WithLabelValues(kind).Inc()
}
