package config

import (
	"net"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultHTTPAddr          = "0.0.0.0"
	DefaultHTTPPort          = 8081
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 15 * time.Second

	DefaultProxyTimeout      = 30 * time.Second
	DefaultProxyDialTimeout  = 10 * time.Second
	DefaultProxyMaxIdleConns = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultTracingExporter = "stdout"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				Port:              DefaultHTTPPort,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
		},
		Proxy: ProxySection{
			Timeout:      DefaultProxyTimeout,
			DialTimeout:  DefaultProxyDialTimeout,
			MaxIdleConns: DefaultProxyMaxIdleConns,
		},
		Log: LogSection{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			AccessLog: true,
		},
		Telemetry: TelemetrySection{
			Metrics:         true,
			TracingExporter: DefaultTracingExporter,
		},
	}
}

// ListenAddr returns the edge listener address as host:port.
func (c HTTPConfig) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether the edge listener serves TLS.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
