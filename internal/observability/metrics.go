// Package observability provides Prometheus metrics and the echo middleware
// that records HTTP traffic.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// EventsTotal counts dispatched inbound events by type and outcome
	// (handled, dropped, duplicate, failed).
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_events_total",
			Help: "Inbound events",
		},
		[]string{"type", "outcome"},
	)

	// EventDuration records how long one event held its user's lock.
	EventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmadelivery_event_duration_seconds",
			Help:    "Event handling duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// OrdersTotal counts order status changes by the status reached.
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_order_transitions_total",
			Help: "Order status transitions",
		},
		[]string{"status"},
	)

	// CourierOffersTotal counts offer outcomes (offered, accepted, refused, timed_out, lost_race).
	CourierOffersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_courier_offers_total",
			Help: "Courier offers",
		},
		[]string{"outcome"},
	)

	// CollaboratorFailuresTotal counts failed calls to external collaborators.
	CollaboratorFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_collaborator_failures_total",
			Help: "Collaborator failures",
		},
		[]string{"collaborator"},
	)

	// ActiveConversations is refreshed by the eviction job and the health endpoint.
	ActiveConversations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmadelivery_active_conversations",
			Help: "Stored conversations",
		},
	)

	// JobRunsTotal counts background job runs by job and outcome.
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_job_runs_total",
			Help: "Background job runs",
		},
		[]string{"job", "outcome"},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadelivery_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmadelivery_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RateLimitRejectedTotal counts webhook messages dropped by the per-sender limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmadelivery_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		EventDuration,
		OrdersTotal,
		CourierOffersTotal,
		CollaboratorFailuresTotal,
		ActiveConversations,
		JobRunsTotal,
		RequestsTotal,
		RequestDuration,
		RateLimitRejectedTotal,
	)
}
