package config

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/framecast/framecast/internal/tools"
)

var validLogLevels = []string{"none", "trace", "debug", "info", "warn", "error", "fatal"}

// Validate validates config and returns error if problems found.
func (c Config) Validate() error {
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}

	if err := validatePort(c.TCP.Port, "tcp_server.port"); err != nil {
		return err
	}
	if err := validatePort(c.HTTP.Port, "http_server.port"); err != nil {
		return err
	}
	if c.HTTP.InternalPort != "" {
		port, err := strconv.Atoi(c.HTTP.InternalPort)
		if err != nil {
			return fmt.Errorf("invalid http_server.internal_port: %s", c.HTTP.InternalPort)
		}
		if err := validatePort(port, "http_server.internal_port"); err != nil {
			return err
		}
	}

	if c.Client.MaxFrameSize < 0 {
		return fmt.Errorf("client.max_frame_size can not be negative")
	}
	if c.Client.MaxFrameSize > 0 && c.Client.MaxFrameSize < 6 {
		return fmt.Errorf("client.max_frame_size %d is smaller than the frame header, no frame will ever fit", c.Client.MaxFrameSize)
	}
	if c.Client.ConnectionLimit < 0 {
		return fmt.Errorf("client.connection_limit can not be negative")
	}
	if c.Client.ConnectionLimit > 255 {
		return fmt.Errorf("client.connection_limit can not exceed 255, one byte of sender id space is available")
	}
	if c.Client.WriteTimeout < 0 {
		return fmt.Errorf("client.write_timeout can not be negative")
	}

	if c.WebSocket.MessageSizeLimit < 0 {
		return fmt.Errorf("websocket.message_size_limit can not be negative")
	}
	if c.WebSocket.WriteTimeout < 0 {
		return fmt.Errorf("websocket.write_timeout can not be negative")
	}

	if c.Shutdown.Timeout <= 0 {
		return fmt.Errorf("shutdown.timeout must be positive")
	}

	if !tools.IsASCII(c.Node.Name) {
		return fmt.Errorf("node.name must be ASCII: %s", c.Node.Name)
	}

	if c.Graphite.Enabled {
		if err := validatePort(c.Graphite.Port, "graphite.port"); err != nil {
			return err
		}
		if c.Graphite.Interval <= 0 {
			return fmt.Errorf("graphite.interval must be positive")
		}
		if !tools.IsASCII(c.Graphite.Prefix) {
			return fmt.Errorf("graphite.prefix must be ASCII: %s", c.Graphite.Prefix)
		}
	}

	return nil
}

func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s: %d", name, port)
	}
	return nil
}
