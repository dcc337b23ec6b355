package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/teampoints/core"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	EventsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_points_events_created_total",
			Help: "Total number of Team Points events opened",
		},
		[]string{"course"},
	)

	EventsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_points_events_closed_total",
			Help: "Total number of Team Points events closed and settled",
		},
		[]string{"course"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_points_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	SettlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "team_points_settlement_duration_seconds",
			Help:    "Time spent closing and settling an event",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScalingFactors = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "team_points_scaling_factor",
			Help:    "Distribution of settled scaling factors",
			Buckets: prometheus.LinearBuckets(0, 0.25, 9),
		},
		[]string{"course"},
	)
)

// Outcome labels the result of an operation: "ok", or the kind of domain error.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return core.KindOf(err).String()
}
