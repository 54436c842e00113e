package config

import "time"

// ServerConfig is the root configuration for statichost.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Proxy     ProxySection     `koanf:"proxy"`
	Log       LogSection       `koanf:"log"`
	Telemetry TelemetrySection `koanf:"telemetry"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Admin AdminConfig `koanf:"admin"`
}

// HTTPConfig configures the edge listener.
type HTTPConfig struct {
	// Addr is the bind host. The port is configured separately so the
	// --port flag can override it alone.
	Addr string `koanf:"addr"`
	Port int    `koanf:"port"`

	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// AdminConfig configures the operational listener.
type AdminConfig struct {
	// Addr is "host:port" for TCP or "unix:/path/to.sock". Empty disables
	// the admin listener.
	Addr string `koanf:"addr"`

	// Token, when set, is required as a bearer token on /routes and
	// /metrics. /health and /ready stay open for probes.
	Token string `koanf:"token"`
}

// ProxySection configures the forwarder.
type ProxySection struct {
	// Timeout bounds the wait for upstream response headers.
	Timeout     time.Duration `koanf:"timeout"`
	DialTimeout time.Duration `koanf:"dial_timeout"`

	MaxIdleConns int `koanf:"max_idle_conns"`

	// PassMethod forwards the client's method and body. When false every
	// forwarded request is a GET with an empty body.
	PassMethod bool `koanf:"pass_method"`

	// PreserveHost keeps the client's Host header instead of the origin's.
	PreserveHost bool `koanf:"preserve_host"`

	// CAFile is an optional PEM bundle added to the system roots for
	// upstream TLS verification.
	CAFile string `koanf:"ca_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AccessLog bool   `koanf:"access_log"`
}

// TelemetrySection configures metrics and tracing.
type TelemetrySection struct {
	Metrics         bool   `koanf:"metrics"`
	Tracing         bool   `koanf:"tracing"`
	TracingExporter string `koanf:"tracing_exporter"`
}
