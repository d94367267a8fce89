package app

import (
	"os"
	"strconv"

	"github.com/framecast/framecast/internal/config"
	"github.com/framecast/framecast/internal/relay"
)

func relayNodeConfig(cfg config.Config, name string) relay.NodeConfig {
	return relay.NodeConfig{
		Name:            name,
		MaxFrameSize:    uint32(cfg.Client.MaxFrameSize),
		WriteTimeout:    cfg.Client.WriteTimeout.ToDuration(),
		ConnectionLimit: cfg.Client.ConnectionLimit,
	}
}

// nodeName returns a name for this Framecast node. If no name provided
// in configuration then it constructs node name based on hostname and port.
func nodeName(cfg config.Config) string {
	name := cfg.Node.Name
	if name != "" {
		return name
	}
	port := strconv.Itoa(cfg.TCP.Port)
	var hostname string
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "?"
	}
	return hostname + "_" + port
}
