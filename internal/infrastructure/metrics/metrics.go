package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livemarket_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livemarket_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livemarket_messages_sent_total",
			Help: "Messages written to chats and show rooms",
		},
		[]string{"kind"}, // "direct", "image", "room"
	)

	SendsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livemarket_sends_rejected_total",
			Help: "Message sends rejected before any write",
		},
		[]string{"reason"},
	)

	PresenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livemarket_presence_writes_total",
			Help: "Presence document writes",
		},
		[]string{"kind", "result"}, // kind: "online", "offline", "heartbeat"
	)

	PresenceSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livemarket_presence_sessions",
			Help: "Presence sessions currently started",
		},
	)

	ActiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "livemarket_active_subscriptions",
			Help: "Live store subscriptions currently open",
		},
		[]string{"kind"},
	)

	SubscriptionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livemarket_subscription_errors_total",
			Help: "Errors raised by live subscriptions or their callbacks",
		},
		[]string{"kind"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livemarket_websocket_connections",
			Help: "Open WebSocket connections",
		},
	)
)
