package metrics

import (
	"time"
)

// Node metric helper functions - used on the session admission path

// IncConnections increments the admitted session counter.
func IncConnections(transport string) {
	ConnectionsTotal.WithLabelValues(transport).Inc()
}

// IncConnectionsRefused increments the refused session counter.
func IncConnectionsRefused(transport string) {
	ConnectionsRefusedTotal.WithLabelValues(transport).Inc()
}

// IncDisconnects increments the finished session counter for a close reason.
func IncDisconnects(transport string, reason string) {
	DisconnectsTotal.WithLabelValues(transport, reason).Inc()
}

// SetClients sets the active session gauge.
func SetClients(n int) {
	ClientsCurrent.Set(float64(n))
}

// SetBuildInfo sets the build info gauge for the running version.
func SetBuildInfo(version string) {
	BuildInfoGauge.WithLabelValues(version).Set(1)
}

// Relay metric helper functions - used on the fan-out path

// IncMessagesReceived increments the inbound message counter.
func IncMessagesReceived(transport string, kind string) {
	MessagesReceivedTotal.WithLabelValues(transport, kind).Inc()
}

// AddMessagesDelivered adds the number of per-peer deliveries of one message.
func AddMessagesDelivered(kind string, delivered int) {
	MessagesDeliveredTotal.WithLabelValues(kind).Add(float64(delivered))
}

// IncBroadcastErrors increments the per-peer delivery failure counter.
func IncBroadcastErrors(kind string) {
	BroadcastErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveBroadcastDuration observes the duration of one full fan-out.
func ObserveBroadcastDuration(started time.Time, kind string) {
	BroadcastDurationSeconds.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Transport metric helper functions

// AddBytesIn adds received envelope bytes for a transport.
func AddBytesIn(transport string, n int) {
	BytesInTotal.WithLabelValues(transport).Add(float64(n))
}

// AddBytesOut adds written envelope bytes for a transport.
func AddBytesOut(transport string, n int) {
	BytesOutTotal.WithLabelValues(transport).Add(float64(n))
}
