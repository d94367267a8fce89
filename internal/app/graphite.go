package app

import (
	"net"
	"strconv"
	"strings"

	"github.com/framecast/framecast/internal/config"
	"github.com/framecast/framecast/internal/metrics/graphite"

	"github.com/prometheus/client_golang/prometheus"
)

func graphiteExporter(cfg config.Config, nodeName string) *graphite.Exporter {
	return graphite.New(graphite.Config{
		Address:  net.JoinHostPort(cfg.Graphite.Host, strconv.Itoa(cfg.Graphite.Port)),
		Gatherer: prometheus.DefaultGatherer,
		Prefix:   strings.TrimSuffix(cfg.Graphite.Prefix, ".") + "." + graphite.PreparePathComponent(nodeName),
		Interval: cfg.Graphite.Interval.ToDuration(),
		Tags:     cfg.Graphite.Tags,
	})
}
