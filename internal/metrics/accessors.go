package metrics

import "github.com/prometheus/client_golang/prometheus"

// Node metrics - exported for use by relay package
var (
	ConnectionsTotal        *prometheus.CounterVec
	ConnectionsRefusedTotal *prometheus.CounterVec
	DisconnectsTotal        *prometheus.CounterVec
	ClientsCurrent          prometheus.Gauge
	BuildInfoGauge          *prometheus.GaugeVec
)

// Relay metrics - exported for use by relay package
var (
	MessagesReceivedTotal    *prometheus.CounterVec
	MessagesDeliveredTotal   *prometheus.CounterVec
	BroadcastErrorsTotal     *prometheus.CounterVec
	BroadcastDurationSeconds *prometheus.HistogramVec
)

// Transport metrics - exported for use by transport implementations
var (
	BytesInTotal  *prometheus.CounterVec
	BytesOutTotal *prometheus.CounterVec
)

// Middleware metrics - exported for use by middleware package
var (
	HTTPRequestsTotal *prometheus.CounterVec
)
