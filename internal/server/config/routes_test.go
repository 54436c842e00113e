package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func prefixesOf(entries []routing.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Prefix
	}
	return out
}

func TestResolveRoutes_NoArgWithoutDefaultFile(t *testing.T) {
	dir := t.TempDir()

	entries, src, err := ResolveRoutes("", dir)
	if err != nil {
		t.Fatalf("ResolveRoutes() error = %v", err)
	}
	if src.Kind != SourceDirectory || !src.Implicit || src.Path != dir {
		t.Errorf("source = %+v", src)
	}
	if len(entries) != 1 || entries[0].Prefix != "/" || *entries[0].Descriptor.Path != dir {
		t.Errorf("entries = %+v", entries)
	}
}

func TestResolveRoutes_NoArgWithDefaultFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultRoutesFile, `{"/api": {"proxy_to": "http://localhost:9000"}, "/": {}}`)

	entries, src, err := ResolveRoutes("", dir)
	if err != nil {
		t.Fatalf("ResolveRoutes() error = %v", err)
	}
	if src.Kind != SourceFile || src.Format != FormatJSON || !src.Implicit {
		t.Errorf("source = %+v", src)
	}
	if got := prefixesOf(entries); len(got) != 2 || got[0] != "/api" || got[1] != "/" {
		t.Errorf("prefixes = %v", got)
	}
}

func TestResolveRoutes_DirectoryArg(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "public"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, src, err := ResolveRoutes("public", dir)
	if err != nil {
		t.Fatalf("ResolveRoutes() error = %v", err)
	}
	want := filepath.Join(dir, "public")
	if src.Kind != SourceDirectory || src.Path != want {
		t.Errorf("source = %+v", src)
	}

	rs, err := routing.Build(entries)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rule := rs.Rules()[0]
	if d, ok := rule.Target.(domain.Directory); !ok || d.Path != want || d.Index != "index.html" || !d.Listing {
		t.Errorf("rule = %+v", rule)
	}
}

func TestResolveRoutes_MissingArg(t *testing.T) {
	_, _, err := ResolveRoutes("does-not-exist.json", t.TempDir())
	if !errors.Is(err, domain.ErrSourceUnreadable) {
		t.Errorf("error = %v, want ErrSourceUnreadable", err)
	}
	if !domain.IsConfigError(err) {
		t.Error("missing source should be a config error")
	}
}

func TestResolveRoutes_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "routes.yml", `
/zeta:
  proxy_to: https://z.example
/alpha:
  path: ./public
  index: home.html
  dir: false
/: {}
`)

	entries, src, err := ResolveRoutes("routes.yml", dir)
	if err != nil {
		t.Fatalf("ResolveRoutes() error = %v", err)
	}
	if src.Format != FormatYAML {
		t.Errorf("Format = %q", src.Format)
	}
	got := prefixesOf(entries)
	want := []string{"/zeta", "/alpha", "/"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("prefixes = %v, want %v", got, want)
		}
	}
	d := entries[1].Descriptor
	if *d.Path != "./public" || *d.Index != "home.html" || *d.Dir {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestDecodeRoutes_JSONKeepsOrder(t *testing.T) {
	entries, err := DecodeRoutes([]byte(`{"/b": {}, "/a": {}, "/c": {"proxy_to": "http://c"}}`), FormatJSON)
	if err != nil {
		t.Fatalf("DecodeRoutes() error = %v", err)
	}
	got := prefixesOf(entries)
	if len(got) != 3 || got[0] != "/b" || got[1] != "/a" || got[2] != "/c" {
		t.Errorf("prefixes = %v", got)
	}
}

func TestDecodeRoutes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		wantErr error
	}{
		{"json syntax", FormatJSON, `{"/a": `, domain.ErrSourceUnparsable},
		{"json not object", FormatJSON, `["/a"]`, domain.ErrSourceUnparsable},
		{"json empty", FormatJSON, ``, domain.ErrSourceUnparsable},
		{"json trailing", FormatJSON, `{} {}`, domain.ErrSourceUnparsable},
		{"json null value", FormatJSON, `{"/a": null}`, domain.ErrMalformedDescriptor},
		{"json string value", FormatJSON, `{"/a": "/srv"}`, domain.ErrMalformedDescriptor},
		{"json unknown key", FormatJSON, `{"/a": {"proxy": "http://x"}}`, domain.ErrMalformedDescriptor},
		{"json wrong type", FormatJSON, `{"/a": {"dir": "yes"}}`, domain.ErrMalformedDescriptor},
		{"json proxy with null path", FormatJSON, `{"/a": {"proxy_to": "http://x", "path": null}}`, domain.ErrMalformedDescriptor},
		{"json null proxy with path", FormatJSON, `{"/a": {"proxy_to": null, "path": "/srv"}}`, domain.ErrMalformedDescriptor},
		{"yaml syntax", FormatYAML, "/a: [", domain.ErrSourceUnparsable},
		{"yaml empty", FormatYAML, "", domain.ErrSourceUnparsable},
		{"yaml sequence", FormatYAML, "- /a\n", domain.ErrSourceUnparsable},
		{"yaml null value", FormatYAML, "/a:\n", domain.ErrMalformedDescriptor},
		{"yaml unknown key", FormatYAML, "/a:\n  target: x\n", domain.ErrMalformedDescriptor},
		{"yaml wrong type", FormatYAML, "/a:\n  dir: [1]\n", domain.ErrMalformedDescriptor},
		{"yaml proxy with null index", FormatYAML, "/a:\n  proxy_to: http://x\n  index: ~\n", domain.ErrMalformedDescriptor},
		{"unknown format", Format("toml"), "", domain.ErrSourceUnparsable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRoutes([]byte(tt.input), tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeRoutes() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeRoutes_BothShapesRejected(t *testing.T) {
	_, err := DecodeRoutes([]byte(`{"/a": {"proxy_to": "http://x", "path": "/srv"}}`), FormatJSON)
	if !errors.Is(err, domain.ErrMalformedDescriptor) {
		t.Errorf("DecodeRoutes() error = %v, want ErrMalformedDescriptor", err)
	}

	mixed := domain.ProxyDescriptor("http://x")
	mixed.Path = new(string)
	if _, err := routing.Build([]routing.Entry{{Prefix: "/a", Descriptor: mixed}}); !errors.Is(err, domain.ErrMalformedDescriptor) {
		t.Errorf("Build() error = %v, want ErrMalformedDescriptor", err)
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"routes.json": FormatJSON,
		"routes.YAML": FormatYAML,
		"routes.yml":  FormatYAML,
		"routes":      FormatJSON,
	}
	for name, want := range tests {
		if got := FormatFor(name); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", name, got, want)
		}
	}
}
