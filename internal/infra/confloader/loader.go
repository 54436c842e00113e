package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "STATICHOST_"

// Loader layers settings sources over a struct of defaults:
//
//  1. the settings file (YAML), if one is set
//  2. environment variables with the prefix
//  3. flag values given with WithFlags
//
// Later layers override earlier ones key by key. Struct fields map to keys
// through `koanf` tags.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	flags     map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the settings file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithFlags sets dotted-key overrides, e.g. "server.http.port".
func WithFlags(values map[string]any) Option {
	return func(l *Loader) {
		l.flags = values
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type layer struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

func (l *Loader) layers() []layer {
	var out []layer
	if l.filePath != "" {
		out = append(out, layer{"file " + l.filePath, file.Provider(l.filePath), yaml.Parser()})
	}
	out = append(out, layer{"env", env.Provider(l.envPrefix, ".", func(s string) string {
		return EnvKey(l.envPrefix, s)
	}), nil})
	if len(l.flags) > 0 {
		out = append(out, layer{"flags", mapProvider(l.flags), nil})
	}
	return out
}

// Load reads every layer and unmarshals the result into target. Fields no
// layer sets keep their current values, so callers pass a struct
// pre-filled with defaults.
func (l *Loader) Load(target any) error {
	for _, ly := range l.layers() {
		if err := l.k.Load(ly.provider, ly.parser); err != nil {
			return fmt.Errorf("load %s: %w", ly.name, err)
		}
	}
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}

// EnvKey converts an environment variable name to a dotted key. A single
// underscore separates levels; a double underscore is a literal underscore
// inside a key: STATICHOST_PROXY_DIAL__TIMEOUT is proxy.dial_timeout.
func EnvKey(prefix, name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, prefix))

	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", ".")
	}
	return strings.Join(parts, "_")
}
