package config

import (
	"os"
	"testing"
	"time"

	"github.com/framecast/framecast/internal/configtypes"

	"github.com/stretchr/testify/require"
)

func getConfig(t *testing.T, configFile string) (Config, Meta) {
	t.Helper()
	conf, meta, err := GetConfig(nil, configFile)
	require.NoError(t, err)
	return conf, meta
}

func checkConfig(t *testing.T, conf Config) {
	t.Helper()
	require.Equal(t, "127.0.0.1", conf.TCP.Address)
	require.Equal(t, 54001, conf.TCP.Port)
	require.Equal(t, 8080, conf.HTTP.Port)
	require.Equal(t, "9000", conf.HTTP.InternalPort)
	require.Equal(t, "debug", conf.Log.Level)
	require.Equal(t, 2048, conf.Client.MaxFrameSize)
	require.Equal(t, configtypes.Duration(5*time.Second), conf.Client.WriteTimeout)
	require.Equal(t, 10, conf.Client.ConnectionLimit)
	require.Equal(t, "/relay", conf.WebSocket.HandlerPrefix)
	require.Equal(t, 4096, conf.WebSocket.MessageSizeLimit)
	require.True(t, conf.Prometheus.Enabled)
	require.True(t, conf.Health.Enabled)
	require.True(t, conf.Graphite.Enabled)
	require.Equal(t, "graphite.local", conf.Graphite.Host)
	require.Equal(t, configtypes.Duration(30*time.Second), conf.Graphite.Interval)
	require.Equal(t, configtypes.Duration(15*time.Second), conf.Shutdown.Timeout)
	require.Equal(t, "relay-test", conf.Node.Name)
	require.Equal(t, "/tmp/framecast.pid", conf.PidFile)

	// Defaults not overridden by the file must survive the merge.
	require.Equal(t, configtypes.Duration(time.Second), conf.WebSocket.WriteTimeout)
	require.Equal(t, "/metrics", conf.Prometheus.HandlerPrefix)
	require.Equal(t, 2003, conf.Graphite.Port)
	require.Equal(t, "framecast", conf.Graphite.Prefix)
}

func TestConfigJSON(t *testing.T) {
	conf, meta := getConfig(t, "testdata/config.json")
	checkConfig(t, conf)
	require.Len(t, meta.UnknownKeys, 0)
	require.Len(t, meta.UnknownEnvs, 0)
}

func TestConfigYAML(t *testing.T) {
	conf, _ := getConfig(t, "testdata/config.yaml")
	checkConfig(t, conf)
}

func TestConfigTOML(t *testing.T) {
	conf, _ := getConfig(t, "testdata/config.toml")
	checkConfig(t, conf)
}

func TestConfigFileNotFound(t *testing.T) {
	_, meta, err := GetConfig(nil, "testdata/does_not_exist.json")
	require.NoError(t, err)
	require.True(t, meta.FileNotFound)
}

func TestConfigEnvVars(t *testing.T) {
	_ = os.Setenv("FRAMECAST_TCP_SERVER_PORT", "54100")
	_ = os.Setenv("FRAMECAST_CLIENT_CONNECTION_LIMIT", "20")
	_ = os.Setenv("FRAMECAST_LOG_LEVEL", "warn")
	_ = os.Setenv("FRAMECAST_UNKNOWN_ENV", "1")
	defer func() {
		_ = os.Unsetenv("FRAMECAST_TCP_SERVER_PORT")
		_ = os.Unsetenv("FRAMECAST_CLIENT_CONNECTION_LIMIT")
		_ = os.Unsetenv("FRAMECAST_LOG_LEVEL")
		_ = os.Unsetenv("FRAMECAST_UNKNOWN_ENV")
	}()
	conf, meta := getConfig(t, "testdata/config.json")
	require.Equal(t, 54100, conf.TCP.Port)
	require.Equal(t, 20, conf.Client.ConnectionLimit)
	require.Equal(t, "warn", conf.Log.Level)
	require.Len(t, meta.UnknownEnvs, 1)
	require.Contains(t, meta.UnknownEnvs, "FRAMECAST_UNKNOWN_ENV")
}

func TestConfigUnknownKeys(t *testing.T) {
	_, meta := getConfig(t, "testdata/config_unknown_keys.json")
	require.Contains(t, meta.UnknownKeys, "tcp_server.prot")
	require.Contains(t, meta.UnknownKeys, "broker")
}

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	require.Equal(t, 54000, conf.TCP.Port)
	require.Equal(t, 8000, conf.HTTP.Port)
	require.Equal(t, "info", conf.Log.Level)
	require.Equal(t, 1048576, conf.Client.MaxFrameSize)
	require.Equal(t, configtypes.Duration(0), conf.Client.WriteTimeout)
	require.Equal(t, 0, conf.Client.ConnectionLimit)
	require.Equal(t, "/connection/websocket", conf.WebSocket.HandlerPrefix)
	require.Equal(t, 1048576, conf.WebSocket.MessageSizeLimit)
	require.Equal(t, configtypes.Duration(30*time.Second), conf.Shutdown.Timeout)
	require.NoError(t, conf.Validate())
}

func TestKnownVarsCoverConfig(t *testing.T) {
	_, meta := getConfig(t, "")
	require.Contains(t, meta.KnownEnvVars, "FRAMECAST_TCP_SERVER_PORT")
	require.Contains(t, meta.KnownEnvVars, "FRAMECAST_HTTP_SERVER_INTERNAL_PORT")
	require.Contains(t, meta.KnownEnvVars, "FRAMECAST_CLIENT_MAX_FRAME_SIZE")
	require.Contains(t, meta.KnownEnvVars, "FRAMECAST_WEBSOCKET_HANDLER_PREFIX")
	require.Contains(t, meta.KnownEnvVars, "FRAMECAST_PID_FILE")
	require.Equal(t, "tcp_server.port", meta.KnownEnvVars["FRAMECAST_TCP_SERVER_PORT"].Path)
	require.Equal(t, "54000", meta.KnownEnvVars["FRAMECAST_TCP_SERVER_PORT"].DefaultValue)
}
