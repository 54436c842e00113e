package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
)

// DefaultRoutesFile is loaded from the working directory when no route
// source is given.
const DefaultRoutesFile = "static_host.json"

// SourceKind describes where the route table came from.
type SourceKind string

const (
	// SourceFile is a JSON or YAML route file.
	SourceFile SourceKind = "file"
	// SourceDirectory is a bare directory served at "/".
	SourceDirectory SourceKind = "directory"
)

// Format is a route file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// RouteSource records how the route table was resolved.
type RouteSource struct {
	Kind   SourceKind `json:"kind"`
	Path   string     `json:"path"`
	Format Format     `json:"format,omitempty"`
	// Implicit is true when no argument was given.
	Implicit bool `json:"implicit"`
}

// descriptorKeys are the only keys a route value may carry.
var descriptorKeys = map[string]struct{}{
	"proxy_to": {},
	"path":     {},
	"index":    {},
	"dir":      {},
}

// LoadRoutes resolves arg against the current working directory and
// returns the route entries in source order.
func LoadRoutes(arg string) ([]routing.Entry, RouteSource, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, RouteSource{}, domain.ErrSourceUnreadable.WithCause(err)
	}
	return ResolveRoutes(arg, wd)
}

// ResolveRoutes resolves arg relative to workDir.
//
// With an empty arg, DefaultRoutesFile in workDir is loaded if it exists,
// otherwise workDir itself is served at "/". A directory arg is served at
// "/". Any other arg must be a readable JSON or YAML route file.
func ResolveRoutes(arg, workDir string) ([]routing.Entry, RouteSource, error) {
	if arg == "" {
		def := filepath.Join(workDir, DefaultRoutesFile)
		if info, err := os.Stat(def); err == nil && !info.IsDir() {
			src := RouteSource{Kind: SourceFile, Path: def, Format: FormatJSON, Implicit: true}
			entries, err := readRouteFile(def, FormatJSON)
			return entries, src, err
		}
		src := RouteSource{Kind: SourceDirectory, Path: workDir, Implicit: true}
		return routing.DirectoryEntries(workDir), src, nil
	}

	name := arg
	if !filepath.IsAbs(name) {
		name = filepath.Join(workDir, name)
	}

	info, err := os.Stat(name)
	if err != nil {
		return nil, RouteSource{}, domain.ErrSourceUnreadable.WithDetails(arg).WithCause(err)
	}
	if info.IsDir() {
		return routing.DirectoryEntries(name), RouteSource{Kind: SourceDirectory, Path: name}, nil
	}

	format := FormatFor(name)
	src := RouteSource{Kind: SourceFile, Path: name, Format: format}
	entries, err := readRouteFile(name, format)
	return entries, src, err
}

// FormatFor picks the route file format from the file extension.
// Anything other than .yaml or .yml is treated as JSON.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func readRouteFile(name string, format Format) ([]routing.Entry, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, domain.ErrSourceUnreadable.WithDetails(name).WithCause(err)
	}
	entries, err := DecodeRoutes(data, format)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Details == "" {
			return nil, de.WithDetails(name)
		}
		return nil, err
	}
	return entries, nil
}

// DecodeRoutes decodes a route table, keeping document key order.
func DecodeRoutes(data []byte, format Format) ([]routing.Entry, error) {
	switch format {
	case FormatYAML:
		return decodeYAMLRoutes(data)
	case FormatJSON:
		return decodeJSONRoutes(data)
	default:
		return nil, domain.ErrSourceUnparsable.WithDetails(fmt.Sprintf("unknown format %q", format))
	}
}

func decodeJSONRoutes(data []byte) ([]routing.Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, domain.ErrSourceUnparsable.WithCause(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, domain.ErrSourceUnparsable.WithCause(errors.New("route table must be a JSON object"))
	}

	var entries []routing.Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, domain.ErrSourceUnparsable.WithCause(err)
		}
		prefix, ok := tok.(string)
		if !ok {
			return nil, domain.ErrSourceUnparsable.WithCause(fmt.Errorf("unexpected token %v", tok))
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, domain.ErrSourceUnparsable.WithCause(err)
		}
		desc, err := decodeJSONDescriptor(prefix, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, routing.Entry{Prefix: prefix, Descriptor: desc})
	}

	if _, err := dec.Token(); err != nil {
		return nil, domain.ErrSourceUnparsable.WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, domain.ErrSourceUnparsable.WithCause(errors.New("trailing data after route table"))
	}
	return entries, nil
}

func decodeJSONDescriptor(prefix string, raw json.RawMessage) (domain.RuleDescriptor, error) {
	var desc domain.RuleDescriptor

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return desc, malformed(prefix, "value must be an object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return desc, domain.ErrMalformedDescriptor.WithDetails(fmt.Sprintf("route %q", prefix)).WithCause(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return desc, domain.ErrMalformedDescriptor.WithDetails(fmt.Sprintf("route %q", prefix)).WithCause(err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return desc, checkKeyMix(prefix, keys)
}

// checkKeyMix rejects a route naming proxy_to together with any directory
// key. Presence counts, so an explicit null still conflicts.
func checkKeyMix(prefix string, keys []string) error {
	var proxy, directory bool
	for _, k := range keys {
		switch k {
		case "proxy_to":
			proxy = true
		case "path", "index", "dir":
			directory = true
		}
	}
	if proxy && directory {
		return malformed(prefix, "proxy_to mixed with directory fields")
	}
	return nil
}

func decodeYAMLRoutes(data []byte) ([]routing.Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.ErrSourceUnparsable.WithCause(err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, domain.ErrSourceUnparsable.WithCause(errors.New("empty route table"))
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, domain.ErrSourceUnparsable.WithCause(errors.New("route table must be a mapping"))
	}

	entries := make([]routing.Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, domain.ErrSourceUnparsable.WithCause(
				fmt.Errorf("line %d: route prefix must be a string", key.Line))
		}
		desc, err := decodeYAMLDescriptor(key.Value, value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, routing.Entry{Prefix: key.Value, Descriptor: desc})
	}
	return entries, nil
}

func decodeYAMLDescriptor(prefix string, node *yaml.Node) (domain.RuleDescriptor, error) {
	var desc domain.RuleDescriptor

	if node.Kind != yaml.MappingNode {
		return desc, malformed(prefix, "value must be a mapping")
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i].Value
		if _, ok := descriptorKeys[k]; !ok {
			return desc, malformed(prefix, fmt.Sprintf("unknown field %q", k))
		}
		keys = append(keys, k)
	}
	if err := node.Decode(&desc); err != nil {
		return desc, domain.ErrMalformedDescriptor.WithDetails(fmt.Sprintf("route %q", prefix)).WithCause(err)
	}
	return desc, checkKeyMix(prefix, keys)
}

func malformed(prefix, reason string) error {
	return domain.ErrMalformedDescriptor.WithDetails(fmt.Sprintf("route %q: %s", prefix, reason))
}
