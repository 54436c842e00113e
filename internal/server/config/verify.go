package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

// UnixPrefix marks an admin address as a unix socket path.
const UnixPrefix = "unix:"

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"json", "text"}
	validExporters  = []string{"stdout", "none"}
)

// Verify validates the configuration.
//
// Every failure is returned as domain.ErrInvalidSettings with details.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyProxy(&cfg.Proxy); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return verifyTelemetry(&cfg.Telemetry)
}

func invalid(format string, args ...any) error {
	return domain.ErrInvalidSettings.WithDetails(fmt.Sprintf(format, args...))
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return invalid("server.http.port must be in 1-65535, got %d", cfg.HTTP.Port)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return invalid("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return domain.ErrInvalidSettings.WithDetails("tls file").WithCause(err)
		}
	}
	if cfg.HTTP.ReadHeaderTimeout < 0 {
		return invalid("server.http.read_header_timeout must not be negative")
	}
	if cfg.HTTP.ShutdownTimeout < 0 {
		return invalid("server.http.shutdown_timeout must not be negative")
	}

	return verifyAdminAddr(cfg.Admin.Addr, cfg.HTTP.ListenAddr())
}

func verifyAdminAddr(addr, edge string) error {
	if addr == "" {
		return nil
	}
	if path, ok := strings.CutPrefix(addr, UnixPrefix); ok {
		if path == "" {
			return invalid("server.admin.addr: empty unix socket path")
		}
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return domain.ErrInvalidSettings.WithDetails("server.admin.addr").WithCause(err)
	}
	if addr == edge {
		return invalid("server.admin.addr %s conflicts with the edge listener", addr)
	}
	return nil
}

func verifyProxy(cfg *ProxySection) error {
	if cfg.Timeout < 0 || cfg.DialTimeout < 0 {
		return invalid("proxy timeouts must not be negative")
	}
	if cfg.MaxIdleConns < 0 {
		return invalid("proxy.max_idle_conns must not be negative")
	}
	if cfg.CAFile != "" {
		if _, err := os.Stat(cfg.CAFile); err != nil {
			return domain.ErrInvalidSettings.WithDetails("proxy.ca_file").WithCause(err)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !oneOf(strings.ToLower(cfg.Level), validLogLevels) {
		return invalid("log.level %q is not one of %v", cfg.Level, validLogLevels)
	}
	if !oneOf(strings.ToLower(cfg.Format), validLogFormats) {
		return invalid("log.format %q is not one of %v", cfg.Format, validLogFormats)
	}
	return nil
}

func verifyTelemetry(cfg *TelemetrySection) error {
	if cfg.Tracing && !oneOf(cfg.TracingExporter, validExporters) {
		return invalid("telemetry.tracing_exporter %q is not one of %v", cfg.TracingExporter, validExporters)
	}
	return nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
