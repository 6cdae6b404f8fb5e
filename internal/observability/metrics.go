package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	activitiesRecordedTotal  *prometheus.CounterVec
	recalculateSeconds       prometheus.Histogram
	interactionGraphSeconds  prometheus.Histogram
	uploadRejectedTotal      *prometheus.CounterVec
	leaderboardRequestsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engage_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		activitiesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_activities_recorded_total",
			Help: "Activities appended to the engagement log, by kind.",
		}, []string{"kind"})

		recalculateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engage_points_recalculate_seconds",
			Help:    "Duration of point total replays.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})

		interactionGraphSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engage_interaction_graph_seconds",
			Help:    "Duration of interaction graph builds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_upload_rejected_total",
			Help: "Asset uploads rejected before storage, by reason.",
		}, []string{"reason"})

		leaderboardRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_leaderboard_requests_total",
			Help: "Leaderboard requests, by cache outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			activitiesRecordedTotal, recalculateSeconds,
			interactionGraphSeconds, uploadRejectedTotal,
			leaderboardRequestsTotal,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the error counter.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ActivitiesRecorded exposes the per-kind activity counter.
func ActivitiesRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return activitiesRecordedTotal
}

// RecalculateDuration exposes the points replay histogram.
func RecalculateDuration() prometheus.Histogram {
	RegisterMetrics()
	return recalculateSeconds
}

// InteractionGraphDuration exposes the graph build histogram.
func InteractionGraphDuration() prometheus.Histogram {
	RegisterMetrics()
	return interactionGraphSeconds
}

// UploadRejected exposes the upload rejection counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// LeaderboardRequests exposes the leaderboard cache outcome counter.
func LeaderboardRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return leaderboardRequestsTotal
}
