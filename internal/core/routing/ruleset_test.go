package routing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

func prefixes(rs *RuleSet) []string {
	var out []string
	for _, r := range rs.Rules() {
		out = append(out, r.Prefix)
	}
	return out
}

func TestBuild_SortsByDescendingPrefixLength(t *testing.T) {
	rs, err := Build([]Entry{
		{Prefix: "/", Descriptor: domain.DirectoryDescriptor(".")},
		{Prefix: "/api/v1", Descriptor: domain.ProxyDescriptor("http://localhost:9001")},
		{Prefix: "/api", Descriptor: domain.ProxyDescriptor("http://localhost:9000")},
		{Prefix: "/static", Descriptor: domain.RuleDescriptor{}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"/api/v1", "/static", "/api", "/"}
	if got := prefixes(rs); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if rs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rs.Len())
	}
}

func TestBuild_TiesKeepEntryOrder(t *testing.T) {
	entries := []Entry{
		{Prefix: "/bb", Descriptor: domain.RuleDescriptor{}},
		{Prefix: "/aa", Descriptor: domain.RuleDescriptor{}},
		{Prefix: "/cc", Descriptor: domain.RuleDescriptor{}},
	}
	rs, err := Build(entries)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{"/bb", "/aa", "/cc"}
	if got := prefixes(rs); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	m := map[string]domain.RuleDescriptor{
		"/a":   {},
		"/b":   {},
		"/c":   domain.ProxyDescriptor("http://c.example"),
		"/abc": {},
		"/xyz": domain.ProxyDescriptor("http://xyz.example"),
		"/":    domain.DirectoryDescriptor("/srv"),
	}

	first, err := BuildFromMap(m)
	if err != nil {
		t.Fatalf("BuildFromMap() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := BuildFromMap(m)
		if err != nil {
			t.Fatalf("BuildFromMap() error = %v", err)
		}
		if !reflect.DeepEqual(first.Rules(), again.Rules()) {
			t.Fatalf("build %d produced a different order: %v vs %v", i, prefixes(first), prefixes(again))
		}
	}

	want := []string{"/abc", "/xyz", "/a", "/b", "/c", "/"}
	if got := prefixes(first); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestBuild_DirectoryCollapse(t *testing.T) {
	rs, err := Build(DirectoryEntries("/var/www"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rules := rs.Rules()
	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if rules[0].Prefix != "/" {
		t.Errorf("Prefix = %q, want /", rules[0].Prefix)
	}
	want := domain.Directory{Path: "/var/www", Index: "index.html", Listing: true}
	if got := rules[0].Target; got != want {
		t.Errorf("Target = %+v, want %+v", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	target := "https://example.com"
	path := "/srv"

	tests := []struct {
		name    string
		entries []Entry
		wantErr error
	}{
		{
			name: "both shapes",
			entries: []Entry{
				{Prefix: "/api", Descriptor: domain.RuleDescriptor{ProxyTo: &target, Path: &path}},
			},
			wantErr: domain.ErrMalformedDescriptor,
		},
		{
			name: "empty prefix",
			entries: []Entry{
				{Prefix: "", Descriptor: domain.RuleDescriptor{}},
			},
			wantErr: domain.ErrEmptyPrefix,
		},
		{
			name: "duplicate prefix",
			entries: []Entry{
				{Prefix: "/a", Descriptor: domain.RuleDescriptor{}},
				{Prefix: "/a", Descriptor: domain.ProxyDescriptor(target)},
			},
			wantErr: domain.ErrDuplicatePrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Build(tt.entries)
			if err == nil {
				t.Fatalf("Build() = %v, want error", prefixes(rs))
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if !domain.IsConfigError(err) {
				t.Errorf("Build() error %v is not a config error", err)
			}
		})
	}
}

func TestRuleSet_RulesReturnsCopy(t *testing.T) {
	rs, _ := Build(DirectoryEntries("/srv"))
	rules := rs.Rules()
	rules[0].Prefix = "/mutated"

	if got := rs.Rules()[0].Prefix; got != "/" {
		t.Errorf("RuleSet was mutated through Rules(): prefix = %q", got)
	}
}

func TestRuleSet_CountByKind(t *testing.T) {
	rs, _ := Build([]Entry{
		{Prefix: "/", Descriptor: domain.RuleDescriptor{}},
		{Prefix: "/a", Descriptor: domain.ProxyDescriptor("http://a.example")},
		{Prefix: "/b", Descriptor: domain.ProxyDescriptor("http://b.example")},
	})
	counts := rs.CountByKind()
	if counts[domain.KindDirectory] != 1 || counts[domain.KindProxy] != 2 {
		t.Errorf("CountByKind() = %v", counts)
	}
}

func TestRuleSet_Views(t *testing.T) {
	rs, _ := Build([]Entry{
		{Prefix: "/", Descriptor: domain.DirectoryDescriptor("/srv")},
		{Prefix: "/api", Descriptor: domain.ProxyDescriptor("http://api.example")},
	})
	views := rs.Views()
	if len(views) != 2 {
		t.Fatalf("len(Views()) = %d", len(views))
	}
	if views[0].Prefix != "/api" || views[0].Kind != domain.KindProxy {
		t.Errorf("views[0] = %+v", views[0])
	}
	if views[1].Target != "/srv" {
		t.Errorf("views[1] = %+v", views[1])
	}
}
