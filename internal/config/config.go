// Package config contains Framecast Config and the code to load it.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/framecast/framecast/internal/configtypes"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-envparse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config struct {
	// TCP is a configuration for the raw TCP relay server.
	TCP configtypes.TCPServer `mapstructure:"tcp_server" json:"tcp_server" envconfig:"tcp_server" toml:"tcp_server" yaml:"tcp_server"`
	// HTTP is a configuration for Framecast HTTP server.
	HTTP configtypes.HTTPServer `mapstructure:"http_server" json:"http_server" envconfig:"http_server" toml:"http_server" yaml:"http_server"`
	// Log is a configuration for logging.
	Log configtypes.Log `mapstructure:"log" json:"log" envconfig:"log" toml:"log" yaml:"log"`

	// Client contains relay client connection related configuration.
	Client configtypes.Client `mapstructure:"client" json:"client" envconfig:"client" toml:"client" yaml:"client"`
	// WebSocket configuration. This transport is enabled by default.
	WebSocket configtypes.WebSocket `mapstructure:"websocket" json:"websocket" envconfig:"websocket" toml:"websocket" yaml:"websocket"`

	// Prometheus metrics configuration.
	Prometheus configtypes.Prometheus `mapstructure:"prometheus" json:"prometheus" envconfig:"prometheus" toml:"prometheus" yaml:"prometheus"`
	// Health check endpoint configuration.
	Health configtypes.Health `mapstructure:"health" json:"health" envconfig:"health" toml:"health" yaml:"health"`
	// Debug helps to enable Go profiling endpoints.
	Debug configtypes.Debug `mapstructure:"debug" json:"debug" envconfig:"debug" toml:"debug" yaml:"debug"`
	// Graphite is a configuration for export metrics to Graphite.
	Graphite configtypes.Graphite `mapstructure:"graphite" json:"graphite" envconfig:"graphite" toml:"graphite" yaml:"graphite"`

	// Node is a configuration for this Framecast node.
	Node configtypes.Node `mapstructure:"node" json:"node" envconfig:"node" toml:"node" yaml:"node"`
	// Shutdown is a configuration for graceful shutdown.
	Shutdown configtypes.Shutdown `mapstructure:"shutdown" json:"shutdown" envconfig:"shutdown" toml:"shutdown" yaml:"shutdown"`

	// PidFile is a path to write a file with Framecast process PID.
	PidFile string `mapstructure:"pid_file" json:"pid_file" envconfig:"pid_file" toml:"pid_file" yaml:"pid_file"`
}

// VarInfo describes one configuration key: its flattened path, the
// environment variable which overrides it and the default value taken
// from struct tags.
type VarInfo struct {
	Name         string
	Path         string
	DefaultValue string
}

type Meta struct {
	FileNotFound bool
	UnknownKeys  []string
	UnknownEnvs  []string
	KnownEnvVars map[string]VarInfo
}

func DefineFlags(rootCmd *cobra.Command) {
	rootCmd.Flags().StringP("pid_file", "", "", "optional path to create PID file")
	rootCmd.Flags().StringP("tcp_server.address", "a", "", "interface address to listen on for relay clients")
	rootCmd.Flags().StringP("tcp_server.port", "p", "54000", "port to bind relay TCP server to")
	rootCmd.Flags().StringP("http_server.address", "", "", "interface address to listen on for HTTP endpoints")
	rootCmd.Flags().StringP("http_server.port", "", "8000", "port to bind HTTP server to")
	rootCmd.Flags().StringP("http_server.internal_address", "", "", "custom interface address to listen on for internal endpoints")
	rootCmd.Flags().StringP("http_server.internal_port", "", "", "custom port for internal endpoints")
	rootCmd.Flags().StringP("log.level", "", "info", "set the log level: trace, debug, info, error, fatal or none")
	rootCmd.Flags().StringP("log.file", "", "", "optional log file - if not specified logs go to STDOUT")
	rootCmd.Flags().BoolP("debug.enabled", "", false, "enable debug endpoints")
	rootCmd.Flags().BoolP("prometheus.enabled", "", false, "enable Prometheus metrics endpoint")
	rootCmd.Flags().BoolP("health.enabled", "", false, "enable health check endpoint")
	rootCmd.Flags().BoolP("websocket.disabled", "", false, "disable WebSocket relay endpoint")
}

const envPrefix = "FRAMECAST"

func GetConfig(cmd *cobra.Command, configFile string) (Config, Meta, error) {
	v := viper.NewWithOptions(viper.WithDecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		configtypes.StringToDurationHookFunc(),
	)))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	knownEnvVars := map[string]VarInfo{}
	for _, info := range knownVars() {
		if info.DefaultValue != "" {
			v.SetDefault(info.Path, info.DefaultValue)
		}
		// Only explicitly bound keys are visible to Unmarshal, automatic
		// env lookup is not.
		_ = v.BindEnv(info.Path)
		knownEnvVars[info.Name] = info
	}

	if cmd != nil {
		bindPFlags := []string{
			"pid_file", "tcp_server.address", "tcp_server.port", "http_server.address",
			"http_server.port", "http_server.internal_address", "http_server.internal_port",
			"log.level", "log.file", "debug.enabled", "prometheus.enabled", "health.enabled",
			"websocket.disabled",
		}
		for _, flag := range bindPFlags {
			_ = v.BindPFlag(flag, cmd.Flags().Lookup(flag))
		}
	}

	meta := Meta{}

	if configFile != "" {
		v.SetConfigFile(configFile)
		err := v.ReadInConfig()
		if err != nil {
			var pathError *os.PathError
			switch {
			case errors.As(err, &pathError):
				meta.FileNotFound = true
			default:
				return Config{}, Meta{}, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	conf := &Config{}
	err := v.Unmarshal(conf, func(dc *mapstructure.DecoderConfig) {
		// Defaults and environment values arrive as strings.
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return Config{}, Meta{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	meta.UnknownKeys = findUnknownKeys(v.AllSettings(), conf, "")
	meta.UnknownEnvs = checkEnvironmentVars(knownEnvVars)
	meta.KnownEnvVars = knownEnvVars

	return *conf, meta, nil
}

// knownVars flattens the Config struct into the list of configuration
// keys together with env var names and tag defaults.
func knownVars() []VarInfo {
	var vars []VarInfo
	collectVars(reflect.TypeOf(Config{}), "", &vars)
	return vars
}

func collectVars(typ reflect.Type, parentPath string, vars *[]VarInfo) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		path := appendKeyPath(parentPath, tag)
		if field.Type.Kind() == reflect.Struct {
			collectVars(field.Type, path, vars)
			continue
		}
		*vars = append(*vars, VarInfo{
			Name:         envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(path, ".", "_")),
			Path:         path,
			DefaultValue: field.Tag.Get("default"),
		})
	}
}

// findUnknownKeys returns config file keys which do not map to any
// Config struct field. Such keys usually mean a typo in the file.
func findUnknownKeys(data map[string]any, configStruct any, parentKey string) []string {
	var unknownKeys []string

	val := reflect.ValueOf(configStruct)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	validKeys := make(map[string]reflect.StructField)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag != "" && tag != "-" {
			validKeys[tag] = field
		}
	}

	for key, value := range data {
		field, exists := validKeys[key]
		if !exists {
			unknownKeys = append(unknownKeys, appendKeyPath(parentKey, key))
			continue
		}
		fieldValue := val.FieldByName(field.Name)
		if fieldValue.Kind() == reflect.Struct {
			if nestedMap, ok := value.(map[string]any); ok {
				unknownKeys = append(
					unknownKeys,
					findUnknownKeys(nestedMap, fieldValue.Addr().Interface(), appendKeyPath(parentKey, key))...,
				)
			}
		}
	}

	return unknownKeys
}

func appendKeyPath(parentKey, key string) string {
	if parentKey == "" {
		return key
	}
	return parentKey + "." + key
}

// Kubernetes adds service discovery variables like FRAMECAST_PORT to
// every container in the namespace with a service called framecast.
// Those must not be reported as unknown.
var k8sEnvRegex = regexp.MustCompile(`^FRAMECAST(?:_[A-Z]+)?_(PORT|SERVICE_)`)

// checkEnvironmentVars returns environment variables with the
// FRAMECAST_ prefix which do not map to any known configuration key.
func checkEnvironmentVars(knownEnvVars map[string]VarInfo) []string {
	var unknownEnvs []string

	for _, env := range os.Environ() {
		kv, err := envparse.Parse(strings.NewReader(env))
		if err != nil {
			continue
		}
		for name := range kv {
			if !strings.HasPrefix(name, envPrefix+"_") {
				continue
			}
			if k8sEnvRegex.MatchString(name) {
				continue
			}
			if _, ok := knownEnvVars[name]; !ok {
				unknownEnvs = append(unknownEnvs, name)
			}
		}
	}

	return unknownEnvs
}

// DefaultConfig is a helper to be used in tests or to generate
// configuration file with defaults.
func DefaultConfig() Config {
	conf, _, err := GetConfig(nil, "")
	if err != nil {
		panic("error during getting default config: " + err.Error())
	}
	return conf
}
