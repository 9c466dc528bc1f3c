// Package metrics exposes Prometheus collectors for the retention backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RiskScores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_scores_total",
			Help: "Total number of risk scores computed, by provenance",
		},
		[]string{"provenance", "model_version"},
	)

	RiskTiers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_tier_assignments_total",
			Help: "Total number of assessments per intervention tier",
		},
		[]string{"tier"},
	)

	PredictionsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictions_persisted_total",
			Help: "Total number of queued predictions written to the database",
		},
	)

	PredictionsRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictions_requeued_total",
			Help: "Total number of queued predictions pushed back after a failed write",
		},
	)

	PredictionsDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictions_dead_lettered_total",
			Help: "Total number of queued predictions parked after exhausting write attempts",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ScoreObserver reports scorer outcomes to Prometheus.
type ScoreObserver struct{}

func (ScoreObserver) ObserveScore(p risk.Provenance, modelVersion string) {
	RiskScores.WithLabelValues(string(p), modelVersion).Inc()
}

// ObserveTier counts one assessment in tier.
func ObserveTier(tier risk.Tier) {
	RiskTiers.WithLabelValues(string(tier)).Inc()
}

// Middleware records request duration by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
