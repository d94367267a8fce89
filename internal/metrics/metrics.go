package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultMetricsNamespace = "framecast"

// Config contains metrics configuration.
type Config struct {
	// Namespace is the prometheus namespace for all metrics. If empty, defaults to "framecast".
	Namespace string
	// ConstLabels are labels that will be added to all metrics as constant labels.
	// These are useful for adding environment, region, or other deployment-specific labels.
	ConstLabels map[string]string
	// Registerer is the prometheus registerer to use. If nil, prometheus.DefaultRegisterer is used.
	Registerer prometheus.Registerer
}

// Registry holds all Framecast metrics.
type Registry struct {
	config Config

	// Node metrics
	connectionsTotal        *prometheus.CounterVec
	connectionsRefusedTotal *prometheus.CounterVec
	disconnectsTotal        *prometheus.CounterVec
	clientsCurrent          prometheus.Gauge
	buildInfoGauge          *prometheus.GaugeVec

	// Relay metrics
	messagesReceivedTotal    *prometheus.CounterVec
	messagesDeliveredTotal   *prometheus.CounterVec
	broadcastErrorsTotal     *prometheus.CounterVec
	broadcastDurationSeconds *prometheus.HistogramVec

	// Transport metrics
	bytesInTotal  *prometheus.CounterVec
	bytesOutTotal *prometheus.CounterVec

	// Middleware metrics
	httpRequestsTotal *prometheus.CounterVec
}

func init() {
	// Metrics must be usable from any package without extra setup, so
	// the default registry is built eagerly. Init stays available for
	// custom namespaces and registerers.
	if err := Init(Config{}); err != nil {
		panic(err)
	}
}

// Init initializes the metrics registry with the provided configuration.
// It creates all metrics and registers them with the provided registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used.
// Returns an error if metric registration fails.
func Init(cfg Config) error {
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	ConnectionsTotal = reg.connectionsTotal
	ConnectionsRefusedTotal = reg.connectionsRefusedTotal
	DisconnectsTotal = reg.disconnectsTotal
	ClientsCurrent = reg.clientsCurrent
	BuildInfoGauge = reg.buildInfoGauge

	MessagesReceivedTotal = reg.messagesReceivedTotal
	MessagesDeliveredTotal = reg.messagesDeliveredTotal
	BroadcastErrorsTotal = reg.broadcastErrorsTotal
	BroadcastDurationSeconds = reg.broadcastDurationSeconds

	BytesInTotal = reg.bytesInTotal
	BytesOutTotal = reg.bytesOutTotal

	HTTPRequestsTotal = reg.httpRequestsTotal

	return nil
}

func newRegistry(cfg Config) (*Registry, error) {
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	metricsNamespace := cfg.Namespace
	if metricsNamespace == "" {
		metricsNamespace = defaultMetricsNamespace
	}

	constLabels := prometheus.Labels(cfg.ConstLabels)

	m := &Registry{
		config: cfg,
	}

	// Node metrics
	m.connectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "node",
		Name:        "connections_total",
		Help:        "Number of admitted client sessions.",
		ConstLabels: constLabels,
	}, []string{"transport"})

	m.connectionsRefusedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "node",
		Name:        "connections_refused_total",
		Help:        "Number of client sessions refused at admission.",
		ConstLabels: constLabels,
	}, []string{"transport"})

	m.disconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "node",
		Name:        "disconnects_total",
		Help:        "Number of finished client sessions.",
		ConstLabels: constLabels,
	}, []string{"transport", "reason"})

	m.clientsCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "node",
		Name:        "clients",
		Help:        "Number of active client sessions.",
		ConstLabels: constLabels,
	})

	m.buildInfoGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "node",
		Name:        "build",
		Help:        "Node build info.",
		ConstLabels: constLabels,
	}, []string{"version"})

	// Relay metrics
	m.messagesReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "relay",
		Name:        "messages_received_total",
		Help:        "Number of valid messages received from clients.",
		ConstLabels: constLabels,
	}, []string{"transport", "kind"})

	m.messagesDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "relay",
		Name:        "messages_delivered_total",
		Help:        "Number of per-peer message deliveries.",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.broadcastErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "relay",
		Name:        "broadcast_errors_total",
		Help:        "Number of per-peer delivery failures during fan-out.",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.broadcastDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "relay",
		Name:        "broadcast_duration_seconds",
		Buckets:     prometheus.ExponentialBuckets(0.000001, 2, 16),
		Help:        "Histogram of fan-out duration per message.",
		ConstLabels: constLabels,
	}, []string{"kind"})

	// Transport metrics
	m.bytesInTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "transport",
		Name:        "bytes_in_total",
		Help:        "Envelope bytes received from clients.",
		ConstLabels: constLabels,
	}, []string{"transport"})

	m.bytesOutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "transport",
		Name:        "bytes_out_total",
		Help:        "Envelope bytes written to clients.",
		ConstLabels: constLabels,
	}, []string{"transport"})

	// Middleware metrics
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "node",
			Name:        "incoming_http_requests_total",
			Help:        "Number of incoming HTTP requests",
			ConstLabels: constLabels,
		},
		[]string{"path", "method", "status"},
	)

	// Register all metrics
	var alreadyRegistered prometheus.AlreadyRegisteredError

	collectors := []prometheus.Collector{
		m.connectionsTotal,
		m.connectionsRefusedTotal,
		m.disconnectsTotal,
		m.clientsCurrent,
		m.buildInfoGauge,
		m.messagesReceivedTotal,
		m.messagesDeliveredTotal,
		m.broadcastErrorsTotal,
		m.broadcastDurationSeconds,
		m.bytesInTotal,
		m.bytesOutTotal,
		m.httpRequestsTotal,
	}

	for _, collector := range collectors {
		err := registerer.Register(collector)
		if err != nil {
			// Ignore if already registered (allows re-initialization in tests)
			if !errors.As(err, &alreadyRegistered) {
				return nil, err
			}
		}
	}

	return m, nil
}
