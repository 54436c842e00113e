// Package config provides server configuration for statichost.
//
// This package holds the two configuration inputs and keeps them apart:
//
//   - settings.go: ServerConfig struct definition (listener, proxy, log, telemetry)
//   - default.go: Default configuration values
//   - verify.go: Business validation (ports, TLS pair, timeouts, addresses)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - routes.go: Route source resolution and decoding (JSON or YAML)
//
// ServerConfig is loaded via internal/infra/confloader and supports
// multiple sources: defaults, a settings file, environment variables and
// flags. The route table is read once from its own source at startup.
package config
