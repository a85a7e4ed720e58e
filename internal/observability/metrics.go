package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Delivery bus metrics
	BusSubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bus_subscriptions_active",
			Help: "Number of live delivery-bus subscriptions",
		},
	)

	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of messages published on the delivery bus",
		},
		[]string{"driver"},
	)

	BusMessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_delivered_total",
			Help: "Total number of messages handed to live subscriptions",
		},
	)

	BusMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_dropped_total",
			Help: "Messages dropped because a subscription buffer was full",
		},
	)

	BusDeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_delivery_failures_total",
			Help: "Publish calls that failed; sends still succeed once persisted",
		},
	)

	// WebSocket metrics
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)
)
