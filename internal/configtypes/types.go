package configtypes

// TCPServer configures the raw TCP relay endpoint.
type TCPServer struct {
	// Address is an interface address to bind the relay listener to.
	Address string `mapstructure:"address" json:"address" envconfig:"address" toml:"address" yaml:"address"`
	// Port to bind the relay listener to.
	Port int `mapstructure:"port" json:"port" envconfig:"port" toml:"port" yaml:"port" default:"54000"`
}

// HTTPServer configures HTTP endpoints (WebSocket transport plus internal
// observability handlers).
type HTTPServer struct {
	// Address is an interface address to listen on.
	Address string `mapstructure:"address" json:"address" envconfig:"address" toml:"address" yaml:"address"`
	// Port to bind HTTP server to.
	Port int `mapstructure:"port" json:"port" envconfig:"port" toml:"port" yaml:"port" default:"8000"`
	// InternalAddress is a custom interface address to serve internal
	// endpoints (metrics, health, debug) on. When empty the main address
	// is reused.
	InternalAddress string `mapstructure:"internal_address" json:"internal_address" envconfig:"internal_address" toml:"internal_address" yaml:"internal_address"`
	// InternalPort is a custom port for internal endpoints. When empty the
	// main port is reused.
	InternalPort string `mapstructure:"internal_port" json:"internal_port" envconfig:"internal_port" toml:"internal_port" yaml:"internal_port"`
}

// Log is a configuration for logging.
type Log struct {
	// Level is a log level: none, trace, debug, info, warn, error, fatal.
	Level string `mapstructure:"level" json:"level" envconfig:"level" toml:"level" yaml:"level" default:"info"`
	// File is an optional path to a log file. When empty logs go to STDOUT.
	File string `mapstructure:"file" json:"file" envconfig:"file" toml:"file" yaml:"file"`
}

// Client contains per-connection relay options shared by all transports.
type Client struct {
	// MaxFrameSize limits the declared size of a single inbound frame in
	// bytes. A session declaring a larger frame is closed as protocol
	// violating. Zero disables the check.
	MaxFrameSize int `mapstructure:"max_frame_size" json:"max_frame_size" envconfig:"max_frame_size" toml:"max_frame_size" yaml:"max_frame_size" default:"1048576"`
	// WriteTimeout is a deadline for a single frame write to a TCP client.
	// Zero means no deadline.
	WriteTimeout Duration `mapstructure:"write_timeout" json:"write_timeout" envconfig:"write_timeout" toml:"write_timeout" yaml:"write_timeout" default:"0s"`
	// ConnectionLimit caps the number of simultaneously connected clients.
	// Zero means limited only by the 255-wide session id space.
	ConnectionLimit int `mapstructure:"connection_limit" json:"connection_limit" envconfig:"connection_limit" toml:"connection_limit" yaml:"connection_limit"`
}

// WebSocket transport configuration. The transport is enabled by default.
type WebSocket struct {
	Disabled        bool     `mapstructure:"disabled" json:"disabled" envconfig:"disabled" toml:"disabled" yaml:"disabled"`
	HandlerPrefix   string   `mapstructure:"handler_prefix" json:"handler_prefix" envconfig:"handler_prefix" toml:"handler_prefix" yaml:"handler_prefix" default:"/connection/websocket"`
	ReadBufferSize  int      `mapstructure:"read_buffer_size" json:"read_buffer_size" envconfig:"read_buffer_size" toml:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int      `mapstructure:"write_buffer_size" json:"write_buffer_size" envconfig:"write_buffer_size" toml:"write_buffer_size" yaml:"write_buffer_size"`
	// UseWriteBufferPool makes the upgrader share write buffers between
	// connections instead of allocating one per connection.
	UseWriteBufferPool bool     `mapstructure:"use_write_buffer_pool" json:"use_write_buffer_pool" envconfig:"use_write_buffer_pool" toml:"use_write_buffer_pool" yaml:"use_write_buffer_pool"`
	WriteTimeout       Duration `mapstructure:"write_timeout" json:"write_timeout" envconfig:"write_timeout" toml:"write_timeout" yaml:"write_timeout" default:"1s"`
	// MessageSizeLimit bounds one inbound WebSocket message in bytes.
	// Zero disables the limit.
	MessageSizeLimit int `mapstructure:"message_size_limit" json:"message_size_limit" envconfig:"message_size_limit" toml:"message_size_limit" yaml:"message_size_limit" default:"1048576"`
}

// Prometheus metrics configuration.
type Prometheus struct {
	Enabled       bool   `mapstructure:"enabled" json:"enabled" envconfig:"enabled" toml:"enabled" yaml:"enabled"`
	HandlerPrefix string `mapstructure:"handler_prefix" json:"handler_prefix" envconfig:"handler_prefix" toml:"handler_prefix" yaml:"handler_prefix" default:"/metrics"`
	// InstrumentHTTPHandlers enables counting of incoming HTTP requests.
	InstrumentHTTPHandlers bool `mapstructure:"instrument_http_handlers" json:"instrument_http_handlers" envconfig:"instrument_http_handlers" toml:"instrument_http_handlers" yaml:"instrument_http_handlers"`
}

// Health check endpoint configuration.
type Health struct {
	Enabled       bool   `mapstructure:"enabled" json:"enabled" envconfig:"enabled" toml:"enabled" yaml:"enabled"`
	HandlerPrefix string `mapstructure:"handler_prefix" json:"handler_prefix" envconfig:"handler_prefix" toml:"handler_prefix" yaml:"handler_prefix" default:"/health"`
}

// Debug helps to enable Go profiling endpoints.
type Debug struct {
	Enabled       bool   `mapstructure:"enabled" json:"enabled" envconfig:"enabled" toml:"enabled" yaml:"enabled"`
	HandlerPrefix string `mapstructure:"handler_prefix" json:"handler_prefix" envconfig:"handler_prefix" toml:"handler_prefix" yaml:"handler_prefix" default:"/debug/pprof"`
}

// Graphite is a configuration for exporting metrics to Graphite.
type Graphite struct {
	Enabled  bool     `mapstructure:"enabled" json:"enabled" envconfig:"enabled" toml:"enabled" yaml:"enabled"`
	Host     string   `mapstructure:"host" json:"host" envconfig:"host" toml:"host" yaml:"host" default:"localhost"`
	Port     int      `mapstructure:"port" json:"port" envconfig:"port" toml:"port" yaml:"port" default:"2003"`
	Prefix   string   `mapstructure:"prefix" json:"prefix" envconfig:"prefix" toml:"prefix" yaml:"prefix" default:"framecast"`
	Interval Duration `mapstructure:"interval" json:"interval" envconfig:"interval" toml:"interval" yaml:"interval" default:"10s"`
	Tags     bool     `mapstructure:"tags" json:"tags" envconfig:"tags" toml:"tags" yaml:"tags"`
}

// Node is a configuration of this relay instance.
type Node struct {
	// Name is a human-readable unique name of this node. When empty the
	// hostname is used.
	Name string `mapstructure:"name" json:"name" envconfig:"name" toml:"name" yaml:"name"`
}

// Shutdown is a configuration for graceful shutdown.
type Shutdown struct {
	Timeout Duration `mapstructure:"timeout" json:"timeout" envconfig:"timeout" toml:"timeout" yaml:"timeout" default:"30s"`
}
